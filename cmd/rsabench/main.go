package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/rsabench/internal/benchmark"
	"github.com/user/rsabench/internal/config"
	"github.com/user/rsabench/internal/logger"
	"github.com/user/rsabench/internal/output"
	"github.com/user/rsabench/internal/server"
	"github.com/user/rsabench/pkg/sysinfo"
)

type rootOptions struct {
	operations   []string
	bitLengths   []int
	iterations   int
	parallel     int
	rounds       int
	seed         int64
	outputFormat string
	outputFile   string
	verbose      bool
	showProgress bool
	timeout      int
	webMode      bool
	webPort      string
	workers      int
	configFile   string
	logLevel     string
	logFile      string
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	def := benchmark.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "rsabench",
		Short: "Textbook RSA built from first principles, with a benchmark harness",
		Long: `rsabench generates RSA key pairs from scratch (Miller-Rabin primes,
extended Euclid inverses, square-and-multiply exponentiation) and measures
how fast key generation, encryption and decryption run on this machine.

Keys are unpadded textbook RSA and must not protect real data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}
	cmd.CompletionOptions.HiddenDefaultCmd = true

	flags := cmd.Flags()
	flags.StringSliceVarP(&o.operations, "operations", "a", def.Operations, "Operations to benchmark (keygen, encrypt, decrypt)")
	flags.IntSliceVarP(&o.bitLengths, "bit-lengths", "k", def.BitLengths, "Prime sizes in bits; the modulus is about twice as long")
	flags.IntVarP(&o.iterations, "iterations", "i", def.Iterations, "Number of iterations per worker")
	flags.IntVarP(&o.parallel, "parallel", "p", def.Parallel, "Number of parallel workers")
	flags.IntVarP(&o.rounds, "rounds", "r", def.Rounds, "Miller-Rabin rounds per prime candidate")
	flags.Int64Var(&o.seed, "seed", 0, "Seed for reproducible, insecure runs (0 uses crypto/rand)")
	flags.StringVarP(&o.outputFormat, "format", "f", "table", "Output format (table, json, csv)")
	flags.StringVarP(&o.outputFile, "output", "o", "", "Output file (default: stdout)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVar(&o.showProgress, "progress", def.ShowProgress, "Show progress bar")
	flags.IntVarP(&o.timeout, "timeout", "t", def.Timeout, "Timeout in seconds per test (0 disables)")
	flags.BoolVarP(&o.webMode, "web", "w", false, "Run in web server mode")
	flags.StringVar(&o.webPort, "port", "8080", "Web server port")
	flags.IntVar(&o.workers, "workers", 2, "Concurrent benchmark jobs in web mode")
	flags.StringVarP(&o.configFile, "config", "c", "", "Profile to load (see 'rsabench config')")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&o.logFile, "log-file", "", "Also write logs to this rotated file")

	cmd.AddCommand(
		newDemoCmd(),
		newKeygenCmd(),
		newEncryptCmd(),
		newDecryptCmd(),
		newConfigCmd(),
	)
	return cmd
}

// resolve merges the profile, if any, with flags given on the command line.
// Explicit flags win.
func (o *rootOptions) resolve(cmd *cobra.Command) (*config.Profile, error) {
	profile := config.DefaultProfile()
	if o.configFile != "" {
		p, err := config.Load(o.configFile)
		if err != nil {
			return nil, fmt.Errorf("loading profile: %w", err)
		}
		profile = p
	}

	flags := cmd.Flags()
	b := &profile.Benchmark
	if flags.Changed("operations") {
		b.Operations = o.operations
	}
	if flags.Changed("bit-lengths") {
		b.BitLengths = o.bitLengths
	}
	if flags.Changed("iterations") {
		b.Iterations = o.iterations
	}
	if flags.Changed("parallel") {
		b.Parallel = o.parallel
	}
	if flags.Changed("rounds") {
		b.Rounds = o.rounds
	}
	if flags.Changed("seed") {
		b.Seed = o.seed
	}
	if flags.Changed("progress") {
		b.ShowProgress = o.showProgress
	}
	if flags.Changed("timeout") {
		b.Timeout = o.timeout
	}
	if flags.Changed("verbose") {
		b.Verbose = o.verbose
	}
	if flags.Changed("port") {
		profile.Server.Port = o.webPort
	}
	if flags.Changed("workers") {
		profile.Server.Workers = o.workers
	}
	if o.logLevel != "" {
		profile.Log.Level = o.logLevel
	}
	if o.logFile != "" {
		profile.Log.File = o.logFile
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (o *rootOptions) run(cmd *cobra.Command) error {
	profile, err := o.resolve(cmd)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{Level: profile.Log.Level, File: profile.Log.File})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if o.webMode {
		return runWeb(ctx, profile, log)
	}
	return o.runBenchmark(ctx, cmd.OutOrStdout(), profile.Benchmark, log)
}

func runWeb(ctx context.Context, profile *config.Profile, log *zap.Logger) error {
	srv, err := server.NewServer(profile.Server.Port, profile.Server.Workers, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (o *rootOptions) runBenchmark(ctx context.Context, stdout io.Writer, cfg benchmark.Config, log *zap.Logger) error {
	formatter, err := output.NewFormatter(o.outputFormat)
	if err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}

	sysInfo, err := sysinfo.CollectContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect system info: %w", err)
	}
	log.Debug("system", zap.String("summary", sysInfo.Summary()))

	results, runErr := benchmark.NewRunner(cfg, log).RunContext(ctx)
	if runErr != nil && len(results) == 0 {
		return fmt.Errorf("benchmark failed: %w", runErr)
	}
	if runErr != nil {
		log.Warn("benchmark interrupted, reporting partial results", zap.Error(runErr))
	}

	writer := stdout
	if o.outputFile != "" {
		f, err := os.Create(o.outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	data := output.Data{
		SystemInfo: sysInfo,
		Results:    results,
		Config:     cfg,
	}
	if err := formatter.Format(writer, data); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
