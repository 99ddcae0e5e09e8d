package rawrsa

import (
	"math/big"

	"github.com/user/rsabench/pkg/numtheory"
)

// Encrypt returns m^e mod n. m must already lie in [0, n); it is never
// reduced on the caller's behalf.
func Encrypt(m *big.Int, pub PublicKey) (*big.Int, error) {
	if pub.IsZero() {
		return nil, ErrInvalidKey
	}
	return apply(m, pub.e, pub.n)
}

// Decrypt returns c^d mod n for c in [0, n).
func Decrypt(c *big.Int, priv PrivateKey) (*big.Int, error) {
	if priv.IsZero() {
		return nil, ErrInvalidKey
	}
	return apply(c, priv.d, priv.n)
}

func apply(x, exp, n *big.Int) (*big.Int, error) {
	if x == nil || x.Sign() < 0 || x.Cmp(n) >= 0 {
		return nil, &RangeError{Value: copyOf(x), Modulus: copyOf(n)}
	}
	return numtheory.ModExp(x, exp, n)
}
