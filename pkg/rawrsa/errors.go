package rawrsa

import (
	"errors"
	"fmt"
	"math/big"
)

var ErrInvalidKey = errors.New("rawrsa: invalid key")

// InsufficientEntropyError is returned when the requested prime size cannot
// yield two distinct primes with a usable public exponent.
type InsufficientEntropyError struct {
	BitLength int
	Minimum   int
}

func (e *InsufficientEntropyError) Error() string {
	return fmt.Sprintf("rawrsa: bit length %d is too small, need at least %d", e.BitLength, e.Minimum)
}

// RangeError is returned when a message or ciphertext lies outside [0, n).
type RangeError struct {
	Value   *big.Int
	Modulus *big.Int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("rawrsa: value %s outside [0, %s)", e.Value, e.Modulus)
}

// RetryLimitError is returned when a configured draw ceiling is reached.
type RetryLimitError struct {
	Stage    string
	Attempts int
}

func (e *RetryLimitError) Error() string {
	return fmt.Sprintf("rawrsa: %s gave up after %d draws", e.Stage, e.Attempts)
}
