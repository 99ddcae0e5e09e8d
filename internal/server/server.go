package server

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/user/rsabench/internal/benchmark"
	"github.com/user/rsabench/internal/storage"
	"github.com/user/rsabench/pkg/entropy"
	"github.com/user/rsabench/pkg/numtheory"
	"github.com/user/rsabench/pkg/rawrsa"
	"github.com/user/rsabench/pkg/sysinfo"
)

// MaxKeyBitLength caps prime sizes requested over HTTP.
const MaxKeyBitLength = 4096

type Server struct {
	router     *mux.Router
	keyStore   *storage.KeyStore
	jobStore   *JobStore
	workerPool *WorkerPool
	sysInfo    *sysinfo.SystemInfo
	upgrader   websocket.Upgrader
	log        *zap.Logger
	httpServer *http.Server
}

func NewServer(port string, workers int, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	sysInfo, err := sysinfo.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to collect system info: %w", err)
	}

	jobStore := NewJobStore()

	s := &Server{
		router:     mux.NewRouter(),
		keyStore:   storage.NewKeyStore(),
		jobStore:   jobStore,
		workerPool: NewWorkerPool(workers, jobStore, log),
		sysInfo:    sysInfo,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
	s.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/system-info", s.handleSystemInfo).Methods("GET")

	api.HandleFunc("/keys", s.handleCreateKey).Methods("POST")
	api.HandleFunc("/keys", s.handleListKeys).Methods("GET")
	api.HandleFunc("/keys/{id}", s.handleGetKey).Methods("GET")
	api.HandleFunc("/keys/{id}", s.handleDeleteKey).Methods("DELETE")
	api.HandleFunc("/keys/{id}/encrypt", s.handleEncrypt).Methods("POST")
	api.HandleFunc("/keys/{id}/decrypt", s.handleDecrypt).Methods("POST")

	api.HandleFunc("/benchmarks", s.handleCreateBenchmark).Methods("POST")
	api.HandleFunc("/benchmarks", s.handleListBenchmarks).Methods("GET")
	api.HandleFunc("/benchmarks/{id}", s.handleGetBenchmark).Methods("GET")
	api.HandleFunc("/benchmarks/{id}/progress", s.handleBenchmarkProgress).Methods("GET")
	api.HandleFunc("/benchmarks/{id}/terminate", s.handleTerminateBenchmark).Methods("POST")
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the worker pool and blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.workerPool.Start()

	s.log.Info("rsabench web server starting", zap.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.workerPool.Stop()
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sysInfo)
}

type createKeyRequest struct {
	BitLength int `json:"bit_length"`
	Rounds    int `json:"rounds"`
}

// keyResponse carries only the public half; d never leaves the process.
type keyResponse struct {
	*storage.StoredKey
	E string `json:"e"`
	N string `json:"n"`
}

func newKeyResponse(k *storage.StoredKey) keyResponse {
	pub := k.Pair().Public()
	return keyResponse{StoredKey: k, E: pub.E().String(), N: pub.N().String()}
}

func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.BitLength > MaxKeyBitLength {
		http.Error(w, fmt.Sprintf("bit_length may not exceed %d", MaxKeyBitLength), http.StatusBadRequest)
		return
	}
	if req.Rounds == 0 {
		req.Rounds = rawrsa.DefaultRounds
	}

	// Draws fail once the client goes away, which stops the search.
	src := entropy.NewContextSource(r.Context(), rand.Reader)
	gen := rawrsa.NewGenerator(src, rawrsa.WithRounds(req.Rounds))

	start := time.Now()
	pair, err := gen.Generate(req.BitLength)
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}

	stored := s.keyStore.Store(pair, req.BitLength, req.Rounds)
	s.log.Info("generated key",
		zap.String("id", stored.ID),
		zap.Int("bit_length", req.BitLength),
		zap.Int("modulus_bits", stored.ModulusBits),
		zap.Duration("elapsed", time.Since(start)))

	writeJSON(w, http.StatusCreated, newKeyResponse(stored))
}

func (s *Server) writeGenerateError(w http.ResponseWriter, err error) {
	var insufficient *rawrsa.InsufficientEntropyError
	switch {
	case errors.As(err, &insufficient), errors.Is(err, numtheory.ErrInvalidRounds):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.log.Debug("key generation abandoned", zap.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error("key generation failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys := s.keyStore.List()
	out := make([]keyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, newKeyResponse(k))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) lookupKey(w http.ResponseWriter, r *http.Request) (*storage.StoredKey, bool) {
	key, exists := s.keyStore.Get(mux.Vars(r)["id"])
	if !exists {
		http.Error(w, "Key not found", http.StatusNotFound)
	}
	return key, exists
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key, ok := s.lookupKey(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newKeyResponse(key))
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	if !s.keyStore.Delete(mux.Vars(r)["id"]) {
		http.Error(w, "Key not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type messageBody struct {
	Message string `json:"message"`
}

type ciphertextBody struct {
	Ciphertext string `json:"ciphertext"`
}

func parseInteger(field, value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	x, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%s must be a decimal integer", field)
	}
	return x, nil
}

func writeCipherError(w http.ResponseWriter, err error) {
	var rangeErr *rawrsa.RangeError
	if errors.As(err, &rangeErr) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	key, ok := s.lookupKey(w, r)
	if !ok {
		return
	}

	var req messageBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m, err := parseInteger("message", req.Message)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := rawrsa.Encrypt(m, key.Pair().Public())
	if err != nil {
		writeCipherError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ciphertextBody{Ciphertext: c.String()})
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	key, ok := s.lookupKey(w, r)
	if !ok {
		return
	}

	var req ciphertextBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := parseInteger("ciphertext", req.Ciphertext)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := rawrsa.Decrypt(c, key.Pair().Private())
	if err != nil {
		writeCipherError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: m.String()})
}

func (s *Server) handleCreateBenchmark(w http.ResponseWriter, r *http.Request) {
	config := benchmark.DefaultConfig()
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	config.ShowProgress = false

	if err := config.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, bits := range config.BitLengths {
		if bits > MaxKeyBitLength {
			http.Error(w, fmt.Sprintf("bit_lengths may not exceed %d", MaxKeyBitLength), http.StatusBadRequest)
			return
		}
	}

	job := &BenchmarkJob{
		ID:        uuid.New().String(),
		Config:    config,
		Status:    StatusQueued,
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
		Progress:  make(chan benchmark.ProgressUpdate, 100),
	}

	s.jobStore.Add(job)

	if err := s.workerPool.Submit(job); err != nil {
		s.jobStore.CompleteJob(job.ID, nil, err)
		http.Error(w, "Server is busy, please try again later", http.StatusServiceUnavailable)
		return
	}

	s.log.Info("benchmark queued",
		zap.String("job", job.ID),
		zap.Strings("operations", config.Operations),
		zap.Ints("bit_lengths", config.BitLengths))

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": StatusQueued,
	})
}

func (s *Server) handleListBenchmarks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobStore.List())
}

func (s *Server) handleGetBenchmark(w http.ResponseWriter, r *http.Request) {
	job, exists := s.jobStore.Get(mux.Vars(r)["id"])
	if !exists {
		http.Error(w, "Benchmark not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleTerminateBenchmark(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if !s.jobStore.Terminate(id) {
		http.Error(w, "Benchmark not found", http.StatusNotFound)
		return
	}
	s.workerPool.TerminateJob(id)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  StatusTerminated,
		"message": "Benchmark termination initiated",
	})
}

// handleBenchmarkProgress streams progress updates over a websocket and ends
// with a single message carrying the job's final status.
func (s *Server) handleBenchmarkProgress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, exists := s.jobStore.Get(id)
	if !exists {
		http.Error(w, "Benchmark not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates := job.Progress
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			err := conn.WriteJSON(map[string]any{
				"status":     StatusRunning,
				"completed":  false,
				"current":    update.Current,
				"total":      update.Total,
				"percentage": update.Percentage,
				"rate":       update.Rate,
				"operation":  update.Operation,
				"bit_length": update.BitLength,
			})
			if err != nil {
				return
			}

		case <-ticker.C:
			current, exists := s.jobStore.Get(id)
			if !exists {
				return
			}
			if current.finished() {
				conn.WriteJSON(map[string]any{
					"status":    current.Status,
					"completed": true,
					"error":     current.Error,
				})
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}
