package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/rsabench/pkg/rawrsa"
)

type StoredKey struct {
	ID          string    `json:"id"`
	BitLength   int       `json:"bit_length"`
	ModulusBits int       `json:"modulus_bits"`
	Rounds      int       `json:"rounds"`
	CreatedAt   time.Time `json:"created_at"`

	pair *rawrsa.KeyPair
}

// Pair returns the stored key pair. Keys are immutable, so sharing it is safe.
func (k *StoredKey) Pair() *rawrsa.KeyPair {
	return k.pair
}

// KeyStore keeps generated key pairs in memory for the lifetime of the process.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]*StoredKey
}

func NewKeyStore() *KeyStore {
	return &KeyStore{
		keys: make(map[string]*StoredKey),
	}
}

func (ks *KeyStore) Store(pair *rawrsa.KeyPair, bitLength, rounds int) *StoredKey {
	storedKey := &StoredKey{
		ID:          uuid.New().String(),
		BitLength:   bitLength,
		ModulusBits: pair.ModulusBits(),
		Rounds:      rounds,
		CreatedAt:   time.Now(),
		pair:        pair,
	}

	ks.mu.Lock()
	ks.keys[storedKey.ID] = storedKey
	ks.mu.Unlock()

	return storedKey
}

func (ks *KeyStore) Get(id string) (*StoredKey, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	key, exists := ks.keys[id]
	return key, exists
}

// Delete removes id and reports whether it was present.
func (ks *KeyStore) Delete(id string) bool {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	_, exists := ks.keys[id]
	delete(ks.keys, id)
	return exists
}

// List returns all keys, oldest first.
func (ks *KeyStore) List() []*StoredKey {
	ks.mu.RLock()
	keys := make([]*StoredKey, 0, len(ks.keys))
	for _, key := range ks.keys {
		keys = append(keys, key)
	}
	ks.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CreatedAt.Equal(keys[j].CreatedAt) {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].CreatedAt.Before(keys[j].CreatedAt)
	})
	return keys
}

func (ks *KeyStore) Len() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.keys)
}
