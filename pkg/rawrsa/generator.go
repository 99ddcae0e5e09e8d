// Package rawrsa generates textbook RSA key pairs and applies the raw RSA
// permutation to integers. There is no padding and no key encoding.
package rawrsa

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/user/rsabench/pkg/entropy"
	"github.com/user/rsabench/pkg/numtheory"
)

const (
	// MinBitLength is the smallest prime size for which two distinct primes
	// with a valid public exponent exist (5 and 7 at three bits).
	MinBitLength = 3

	DefaultRounds = 20
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Trace exposes the intermediate values of one generation. It exists for
// diagnostics and white-box tests; the returned KeyPair never carries p, q or
// phi.
type Trace struct {
	P, Q, N, Phi, E, D *big.Int
	// PrimeCandidates counts every primality test run while searching for p and q.
	PrimeCandidates int
	// PrimeDraws counts fresh random starting points, including redraws of q.
	PrimeDraws    int
	ExponentDraws int
}

type Option func(*Generator)

// WithRounds sets the Miller-Rabin rounds applied to each prime candidate.
func WithRounds(n int) Option {
	return func(g *Generator) { g.rounds = n }
}

// WithMaxPrimeDraws bounds the number of random starting points used to find
// two distinct primes. Zero means unbounded.
func WithMaxPrimeDraws(n int) Option {
	return func(g *Generator) { g.maxPrimeDraws = n }
}

// WithMaxExponentDraws bounds the number of public exponent candidates. Zero
// means unbounded.
func WithMaxExponentDraws(n int) Option {
	return func(g *Generator) { g.maxExponentDraws = n }
}

// WithTrace registers fn to receive the intermediate values of each
// successful generation.
func WithTrace(fn func(Trace)) Option {
	return func(g *Generator) { g.trace = fn }
}

// Generator produces key pairs from a randomness source. It holds no state
// between calls; concurrent use is safe when the source is.
type Generator struct {
	src              entropy.Source
	rounds           int
	maxPrimeDraws    int
	maxExponentDraws int
	trace            func(Trace)
}

func NewGenerator(src entropy.Source, opts ...Option) *Generator {
	g := &Generator{
		src:    src,
		rounds: DefaultRounds,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Rounds() int { return g.rounds }

// Generate builds a key pair from two probable primes of bitLength bits each.
func (g *Generator) Generate(bitLength int) (*KeyPair, error) {
	if bitLength < MinBitLength {
		return nil, &InsufficientEntropyError{BitLength: bitLength, Minimum: MinBitLength}
	}
	if g.rounds < 1 {
		return nil, numtheory.ErrInvalidRounds
	}

	var tr Trace

	p, q, err := g.pickPrimes(bitLength, &tr)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).Mul(p, q)
	pMinus1 := new(big.Int).Sub(p, one)
	qMinus1 := new(big.Int).Sub(q, one)
	phi := new(big.Int).Mul(pMinus1, qMinus1)

	e, d, err := g.pickExponents(phi, &tr)
	if err != nil {
		return nil, err
	}

	if g.trace != nil {
		tr.P, tr.Q, tr.N, tr.Phi, tr.E, tr.D = p, q, copyOf(n), phi, copyOf(e), copyOf(d)
		g.trace(tr)
	}

	return &KeyPair{
		public:  PublicKey{e: e, n: n},
		private: PrivateKey{d: d, n: new(big.Int).Set(n)},
	}, nil
}

func (g *Generator) pickPrimes(bitLength int, tr *Trace) (*big.Int, *big.Int, error) {
	p, err := g.drawPrime(bitLength, tr)
	if err != nil {
		return nil, nil, fmt.Errorf("searching for p: %w", err)
	}
	for {
		q, err := g.drawPrime(bitLength, tr)
		if err != nil {
			return nil, nil, fmt.Errorf("searching for q: %w", err)
		}
		if p.Cmp(q) != 0 {
			return p, q, nil
		}
	}
}

// drawPrime draws a random bitLength-bit start and walks upwards over odd
// candidates until one passes the primality test.
func (g *Generator) drawPrime(bitLength int, tr *Trace) (*big.Int, error) {
	if g.maxPrimeDraws > 0 && tr.PrimeDraws >= g.maxPrimeDraws {
		return nil, &RetryLimitError{Stage: "prime search", Attempts: tr.PrimeDraws}
	}
	tr.PrimeDraws++

	c, err := g.src.Bits(bitLength)
	if err != nil {
		return nil, err
	}
	if c.Bit(0) == 0 && c.Cmp(two) != 0 {
		c.Add(c, one)
	}

	for {
		tr.PrimeCandidates++
		ok, err := numtheory.IsProbablePrime(g.src, c, g.rounds)
		if err != nil {
			return nil, err
		}
		if ok {
			return c, nil
		}
		c.Add(c, two)
	}
}

// pickExponents draws e uniformly from [2, phi-1] until it is coprime to phi
// and returns it with its inverse.
func (g *Generator) pickExponents(phi *big.Int, tr *Trace) (*big.Int, *big.Int, error) {
	span := new(big.Int).Sub(phi, two)
	if span.Sign() <= 0 {
		// Unreachable for bitLength >= MinBitLength; kept so a degenerate
		// phi can never spin forever.
		return nil, nil, &InsufficientEntropyError{BitLength: phi.BitLen(), Minimum: MinBitLength}
	}

	for {
		if g.maxExponentDraws > 0 && tr.ExponentDraws >= g.maxExponentDraws {
			return nil, nil, &RetryLimitError{Stage: "exponent search", Attempts: tr.ExponentDraws}
		}
		tr.ExponentDraws++

		e, err := g.src.Int(span)
		if err != nil {
			return nil, nil, fmt.Errorf("drawing public exponent: %w", err)
		}
		e.Add(e, two)

		if numtheory.GCD(e, phi).Cmp(one) != 0 {
			continue
		}

		d, err := numtheory.ModInverse(e, phi)
		var noInv *numtheory.NoInverseError
		if errors.As(err, &noInv) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return e, d, nil
	}
}
