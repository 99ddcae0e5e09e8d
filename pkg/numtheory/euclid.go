package numtheory

import (
	"fmt"
	"math/big"
)

// NoInverseError reports that A has no inverse modulo M because they share a
// factor.
type NoInverseError struct {
	A *big.Int
	M *big.Int
}

func (e *NoInverseError) Error() string {
	return fmt.Sprintf("numtheory: %s has no inverse modulo %s", e.A, e.M)
}

// GCD returns the greatest common divisor of |a| and |b|. GCD(a, 0) is |a|.
func GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Abs(a)
	y := new(big.Int).Abs(b)
	r := new(big.Int)
	for y.Sign() != 0 {
		r.Mod(x, y)
		x, y, r = y, r, x
	}
	return x
}

// ModInverse returns x in [0, m) with a*x ≡ 1 (mod m). It fails with
// *NoInverseError when gcd(a, m) != 1.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}
	if m.Cmp(one) == 0 {
		return new(big.Int), nil
	}

	// Invariant: r0 ≡ t0*a and r1 ≡ t1*a (mod m). Only a's coefficient is
	// tracked; m's coefficient is never needed.
	r0 := new(big.Int).Set(m)
	r1 := new(big.Int).Mod(a, m)
	t0 := new(big.Int)
	t1 := big.NewInt(1)

	q := new(big.Int)
	r := new(big.Int)
	t := new(big.Int)
	for r1.Cmp(one) != 0 {
		if r1.Sign() == 0 {
			return nil, &NoInverseError{A: new(big.Int).Set(a), M: new(big.Int).Set(m)}
		}
		q.QuoRem(r0, r1, r)
		t.Mul(q, t1)
		t.Sub(t0, t)

		r0, r1, r = r1, r, r0
		t0, t1, t = t1, t, t0
	}

	return new(big.Int).Mod(t1, m), nil
}
