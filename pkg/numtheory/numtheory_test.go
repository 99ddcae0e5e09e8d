package numtheory

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/rsabench/pkg/entropy"
)

// scriptedSource replays fixed values from Int, so each Miller-Rabin round
// uses witness = value + 2.
type scriptedSource struct {
	values []int64
	next   int
}

func (s *scriptedSource) Int(max *big.Int) (*big.Int, error) {
	if s.next >= len(s.values) {
		return nil, errors.New("script exhausted")
	}
	v := big.NewInt(s.values[s.next])
	s.next++
	if v.Cmp(max) >= 0 {
		return nil, errors.New("scripted value out of range")
	}
	return v, nil
}

func (s *scriptedSource) Bits(n int) (*big.Int, error) {
	return nil, errors.New("not scripted")
}

func witnesses(ws ...int64) *scriptedSource {
	vals := make([]int64, len(ws))
	for i, w := range ws {
		vals[i] = w - 2
	}
	return &scriptedSource{values: vals}
}

func sieve(limit int) []bool {
	prime := make([]bool, limit)
	for i := 2; i < limit; i++ {
		prime[i] = true
	}
	for i := 2; i*i < limit; i++ {
		if prime[i] {
			for j := i * i; j < limit; j += i {
				prime[j] = false
			}
		}
	}
	return prime
}

func TestModExpIdentities(t *testing.T) {
	for n := int64(1); n <= 40; n++ {
		mod := big.NewInt(n)
		for a := int64(-5); a <= 50; a++ {
			base := big.NewInt(a)
			reduced := new(big.Int).Mod(base, mod)

			got, err := ModExp(base, big.NewInt(0), mod)
			require.NoError(t, err)
			assert.Zero(t, got.Cmp(new(big.Int).Mod(big.NewInt(1), mod)), "%d^0 mod %d", a, n)

			got, err = ModExp(base, big.NewInt(1), mod)
			require.NoError(t, err)
			assert.Zero(t, got.Cmp(reduced), "%d^1 mod %d", a, n)
		}
	}
}

func TestModExpBruteForce(t *testing.T) {
	for n := int64(1); n <= 30; n++ {
		mod := big.NewInt(n)
		for a := int64(0); a <= 40; a++ {
			want := big.NewInt(1 % n)
			for b := int64(0); b <= 20; b++ {
				got, err := ModExp(big.NewInt(a), big.NewInt(b), mod)
				require.NoError(t, err)
				require.Zero(t, got.Cmp(want), "%d^%d mod %d: got %s want %s", a, b, n, got, want)

				want.Mul(want, big.NewInt(a%n))
				want.Mod(want, mod)
			}
		}
	}
}

func TestModExpMatchesBigExp(t *testing.T) {
	src := entropy.NewSeeded(11)
	for i := 0; i < 50; i++ {
		base, err := src.Bits(300)
		require.NoError(t, err)
		exp, err := src.Bits(257)
		require.NoError(t, err)
		mod, err := src.Bits(256)
		require.NoError(t, err)

		got, err := ModExp(base, exp, mod)
		require.NoError(t, err)
		assert.Zero(t, got.Cmp(new(big.Int).Exp(base, exp, mod)))
	}
}

func TestModExpInvalidArguments(t *testing.T) {
	_, err := ModExp(big.NewInt(2), big.NewInt(3), big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidModulus)
	_, err = ModExp(big.NewInt(2), big.NewInt(3), big.NewInt(-7))
	assert.ErrorIs(t, err, ErrInvalidModulus)
	_, err = ModExp(big.NewInt(2), big.NewInt(-1), big.NewInt(7))
	assert.ErrorIs(t, err, ErrNegativeExponent)
}

func TestModExpDoesNotMutateArguments(t *testing.T) {
	base, exp, mod := big.NewInt(123), big.NewInt(45), big.NewInt(67)
	_, err := ModExp(base, exp, mod)
	require.NoError(t, err)
	assert.Equal(t, int64(123), base.Int64())
	assert.Equal(t, int64(45), exp.Int64())
	assert.Equal(t, int64(67), mod.Int64())
}

func TestGCD(t *testing.T) {
	for a := int64(0); a <= 60; a++ {
		assert.Equal(t, a, GCD(big.NewInt(a), big.NewInt(0)).Int64(), "gcd(%d, 0)", a)

		for b := int64(1); b <= 60; b++ {
			g := GCD(big.NewInt(a), big.NewInt(b)).Int64()
			require.NotZero(t, g)
			assert.Zero(t, a%g, "gcd(%d,%d)=%d does not divide a", a, b, g)
			assert.Zero(t, b%g, "gcd(%d,%d)=%d does not divide b", a, b, g)
			for d := g + 1; d <= b; d++ {
				assert.False(t, a%d == 0 && b%d == 0, "%d divides %d and %d but gcd is %d", d, a, b, g)
			}
		}
	}
	assert.Equal(t, int64(0), GCD(big.NewInt(0), big.NewInt(0)).Int64())
	assert.Equal(t, int64(6), GCD(big.NewInt(-48), big.NewInt(18)).Int64())
}

func TestModInverse(t *testing.T) {
	for m := int64(1); m <= 60; m++ {
		mod := big.NewInt(m)
		for a := int64(-10); a <= 2*m; a++ {
			inv, err := ModInverse(big.NewInt(a), mod)
			if GCD(big.NewInt(a), mod).Int64() != 1 {
				var noInv *NoInverseError
				require.True(t, errors.As(err, &noInv), "a=%d m=%d: expected NoInverseError, got %v", a, m, err)
				assert.Equal(t, a, noInv.A.Int64())
				assert.Equal(t, m, noInv.M.Int64())
				continue
			}
			require.NoError(t, err, "a=%d m=%d", a, m)
			assert.True(t, inv.Sign() >= 0 && inv.Cmp(mod) < 0, "inverse %s outside [0, %d)", inv, m)

			prod := new(big.Int).Mul(big.NewInt(a), inv)
			assert.Equal(t, int64(1%m), prod.Mod(prod, mod).Int64(), "a=%d m=%d inv=%s", a, m, inv)
		}
	}
}

func TestModInverseScenario(t *testing.T) {
	phi := big.NewInt(47253052)
	d, err := ModInverse(big.NewInt(5834025), phi)
	require.NoError(t, err)
	assert.Equal(t, int64(7609029), d.Int64())
}

func TestModInverseInvalidModulus(t *testing.T) {
	_, err := ModInverse(big.NewInt(3), big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidModulus)
}

func TestIsProbablePrimeBelowTenThousand(t *testing.T) {
	const limit = 10000
	prime := sieve(limit)
	src := entropy.NewSeeded(1)

	for n := 0; n < limit; n++ {
		got, err := IsProbablePrime(src, big.NewInt(int64(n)), 10)
		require.NoError(t, err)
		require.Equal(t, prime[n], got, "IsProbablePrime(%d)", n)
	}
}

func TestIsProbablePrimeNoFalseNegatives(t *testing.T) {
	prime := sieve(8000)
	var primes []int64
	for n := 2; len(primes) < 1000; n++ {
		if prime[n] {
			primes = append(primes, int64(n))
		}
	}

	src := entropy.Default()
	for _, p := range primes {
		candidate := big.NewInt(p)
		for i := 0; i < 100; i++ {
			ok, err := IsProbablePrime(src, candidate, 5)
			require.NoError(t, err)
			require.True(t, ok, "prime %d rejected", p)
		}
	}
}

func TestIsProbablePrimeWitnessBranches(t *testing.T) {
	tests := []struct {
		name      string
		p         int64
		src       *scriptedSource
		want      bool
		witnesses int
	}{
		// 5^3 ≡ 8 (mod 13), 8^2 ≡ 12: the round passes inside the squaring loop.
		{"passes after squaring", 13, witnesses(5), true, 1},
		// 2^7 ≡ 8 (mod 15) and u-1 = 0: composite detected immediately.
		{"composite without squarings", 15, witnesses(2, 2, 2), false, 1},
		// 561 is a Carmichael number; 2^35 walks 263, 166, 67, 1 and never hits 560.
		{"carmichael exhausts squarings", 561, witnesses(2, 2), false, 1},
		// 2047 = 23*89 is a strong pseudoprime to base 2 but not to base 3.
		{"strong liar then witness", 2047, witnesses(2, 3, 5), false, 2},
		{"strong liar only", 2047, witnesses(2, 2), true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsProbablePrime(tt.src, big.NewInt(tt.p), len(tt.src.values))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.witnesses, tt.src.next, "witnesses consumed")
		})
	}
}

func TestIsProbablePrimeTrivialCases(t *testing.T) {
	src := &scriptedSource{}
	for n, want := range map[int64]bool{-7: false, 0: false, 1: false, 2: true, 3: true, 4: false, 100: false} {
		got, err := IsProbablePrime(src, big.NewInt(n), 1)
		require.NoError(t, err)
		assert.Equal(t, want, got, "n=%d", n)
	}
	assert.Zero(t, src.next, "trivial cases must not draw witnesses")
}

func TestIsProbablePrimeErrors(t *testing.T) {
	_, err := IsProbablePrime(entropy.Default(), big.NewInt(97), 0)
	assert.ErrorIs(t, err, ErrInvalidRounds)

	_, err = IsProbablePrime(&scriptedSource{}, big.NewInt(97), 1)
	assert.EqualError(t, err, "script exhausted")
}

func TestIsProbablePrimeLarge(t *testing.T) {
	src := entropy.NewSeeded(5)
	// 2^127 - 1 is a Mersenne prime; 2^128 + 1 is composite.
	m127 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	ok, err := IsProbablePrime(src, m127, 20)
	require.NoError(t, err)
	assert.True(t, ok)

	f7 := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	ok, err = IsProbablePrime(src, f7, 20)
	require.NoError(t, err)
	assert.False(t, ok)

	for i := 0; i < 20; i++ {
		c, err := src.Bits(256)
		require.NoError(t, err)
		got, err := IsProbablePrime(src, c, 20)
		require.NoError(t, err)
		assert.Equal(t, c.ProbablyPrime(20), got, "disagreement on %s", c)
	}
}
