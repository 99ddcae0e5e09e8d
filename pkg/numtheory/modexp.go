// Package numtheory is the number-theoretic engine behind key generation:
// modular exponentiation, Euclid's algorithms and Miller-Rabin.
//
// Only the basic math/big arithmetic is used; Exp, GCD, ModInverse and
// ProbablyPrime are implemented here instead.
package numtheory

import (
	"errors"
	"math/big"
)

var (
	ErrInvalidModulus   = errors.New("numtheory: modulus must be positive")
	ErrNegativeExponent = errors.New("numtheory: exponent must be non-negative")
	ErrInvalidRounds    = errors.New("numtheory: rounds must be at least 1")
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// ModExp returns base^exponent mod modulus in [0, modulus) using left-to-right
// square-and-multiply.
func ModExp(base, exponent, modulus *big.Int) (*big.Int, error) {
	if modulus.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}
	if exponent.Sign() < 0 {
		return nil, ErrNegativeExponent
	}
	return modExp(base, exponent, modulus), nil
}

// modExp assumes exponent >= 0 and modulus >= 1.
func modExp(base, exponent, modulus *big.Int) *big.Int {
	if modulus.Cmp(one) == 0 {
		return new(big.Int)
	}
	if exponent.Sign() == 0 {
		return big.NewInt(1)
	}

	// Mod is Euclidean, so a negative base also lands in [0, modulus).
	b := new(big.Int).Mod(base, modulus)

	// The leading 1-bit is consumed by starting the accumulator at b.
	acc := new(big.Int).Set(b)
	for i := exponent.BitLen() - 2; i >= 0; i-- {
		acc.Mul(acc, acc)
		acc.Mod(acc, modulus)
		if exponent.Bit(i) == 1 {
			acc.Mul(acc, b)
			acc.Mod(acc, modulus)
		}
	}
	return acc
}
