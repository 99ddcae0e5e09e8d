// Package entropy supplies the random integers consumed by key generation and
// primality testing.
package entropy

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	mrand "math/rand"
	"sync"
)

var ErrInvalidBound = errors.New("entropy: bound must be positive")

// Source draws uniformly distributed integers.
type Source interface {
	// Int returns a uniform integer in [0, max).
	Int(max *big.Int) (*big.Int, error)
	// Bits returns a uniform integer with exactly n bits, i.e. in [2^(n-1), 2^n).
	Bits(n int) (*big.Int, error)
}

// ReaderSource draws from an io.Reader. It is as safe for concurrent use as
// the reader it wraps.
type ReaderSource struct {
	r io.Reader
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// Default returns a source backed by crypto/rand.Reader.
func Default() *ReaderSource {
	return NewReaderSource(rand.Reader)
}

func (s *ReaderSource) Int(max *big.Int) (*big.Int, error) {
	if max == nil || max.Sign() <= 0 {
		return nil, ErrInvalidBound
	}
	return rand.Int(s.r, max)
}

func (s *ReaderSource) Bits(n int) (*big.Int, error) {
	if n < 1 {
		return nil, ErrInvalidBound
	}
	floor := new(big.Int).Lsh(big.NewInt(1), uint(n-1))
	v, err := rand.Int(s.r, floor)
	if err != nil {
		return nil, err
	}
	return v.Add(v, floor), nil
}

// SeededSource is a deterministic source for tests and reproducible runs.
// It is not safe for concurrent use; wrap it with Locked when sharing.
type SeededSource struct {
	rnd *mrand.Rand
}

func NewSeeded(seed int64) *SeededSource {
	return &SeededSource{rnd: mrand.New(mrand.NewSource(seed))}
}

func (s *SeededSource) Int(max *big.Int) (*big.Int, error) {
	if max == nil || max.Sign() <= 0 {
		return nil, ErrInvalidBound
	}
	return new(big.Int).Rand(s.rnd, max), nil
}

func (s *SeededSource) Bits(n int) (*big.Int, error) {
	if n < 1 {
		return nil, ErrInvalidBound
	}
	floor := new(big.Int).Lsh(big.NewInt(1), uint(n-1))
	v := new(big.Int).Rand(s.rnd, floor)
	return v.Add(v, floor), nil
}

// lockedSource serialises access to a source shared between goroutines.
type lockedSource struct {
	mu  sync.Mutex
	src Source
}

// Locked wraps src so it can be shared by concurrent generators.
func Locked(src Source) Source {
	if l, ok := src.(*lockedSource); ok {
		return l
	}
	return &lockedSource{src: src}
}

func (l *lockedSource) Int(max *big.Int) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Int(max)
}

func (l *lockedSource) Bits(n int) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Bits(n)
}
