package numtheory

import (
	"math/big"

	"github.com/user/rsabench/pkg/entropy"
)

var three = big.NewInt(3)

// IsProbablePrime runs rounds of the Miller-Rabin test on p with witnesses
// drawn from src. A prime is never rejected; a composite is accepted with
// probability at most 4^-rounds.
func IsProbablePrime(src entropy.Source, p *big.Int, rounds int) (bool, error) {
	if rounds < 1 {
		return false, ErrInvalidRounds
	}
	if p.Cmp(two) < 0 {
		return false, nil
	}
	if p.Cmp(three) <= 0 {
		return true, nil
	}
	if p.Bit(0) == 0 {
		return false, nil
	}

	pMinus1 := new(big.Int).Sub(p, one)

	// p-1 = 2^u * r with r odd.
	r := new(big.Int).Set(pMinus1)
	u := 0
	for r.Bit(0) == 0 {
		r.Rsh(r, 1)
		u++
	}

	// Witnesses are uniform in [2, p-2].
	span := new(big.Int).Sub(p, three)

witness:
	for i := 0; i < rounds; i++ {
		a, err := src.Int(span)
		if err != nil {
			return false, err
		}
		a.Add(a, two)

		z := modExp(a, r, p)
		if z.Cmp(one) == 0 || z.Cmp(pMinus1) == 0 {
			continue
		}
		for j := 1; j < u; j++ {
			z.Mul(z, z)
			z.Mod(z, p)
			if z.Cmp(pMinus1) == 0 {
				continue witness
			}
		}
		return false, nil
	}
	return true, nil
}
