package main

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/rsabench/pkg/entropy"
	"github.com/user/rsabench/pkg/numtheory"
	"github.com/user/rsabench/pkg/rawrsa"
)

var errCheckFailed = errors.New("key check failed")

type params struct {
	p, q, e, m string
	rounds     int
}

func newRootCmd() *cobra.Command {
	o := &params{}
	cmd := &cobra.Command{
		Use:           "keycheck",
		Short:         "Verify a textbook RSA parameter set step by step",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]*big.Int, 4)
			for i, s := range []string{o.p, o.q, o.e, o.m} {
				x, ok := new(big.Int).SetString(s, 10)
				if !ok {
					return fmt.Errorf("%q is not a decimal integer", s)
				}
				values[i] = x
			}
			if !check(cmd.OutOrStdout(), entropy.Default(), o.rounds, values[0], values[1], values[2], values[3]) {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&o.p, "p", "p", "7547", "First prime")
	cmd.Flags().StringVarP(&o.q, "q", "q", "6263", "Second prime")
	cmd.Flags().StringVarP(&o.e, "e", "e", "5834025", "Public exponent")
	cmd.Flags().StringVarP(&o.m, "m", "m", "39", "Message to round-trip")
	cmd.Flags().IntVarP(&o.rounds, "rounds", "r", rawrsa.DefaultRounds, "Miller-Rabin rounds")
	return cmd
}

func mark(w io.Writer, ok bool, format string, args ...any) bool {
	sym := "✓"
	if !ok {
		sym = "✗"
	}
	fmt.Fprintf(w, sym+" "+format+"\n", args...)
	return ok
}

// check prints one line per property and reports whether all of them hold.
func check(w io.Writer, src entropy.Source, rounds int, p, q, e, m *big.Int) bool {
	one := big.NewInt(1)
	ok := true

	for _, c := range []struct {
		name string
		v    *big.Int
	}{{"p", p}, {"q", q}} {
		prime, err := numtheory.IsProbablePrime(src, c.v, rounds)
		if err != nil {
			mark(w, false, "%s primality test: %v", c.name, err)
			return false
		}
		ok = mark(w, prime, "%s = %s is prime", c.name, c.v) && ok
	}
	ok = mark(w, p.Cmp(q) != 0, "p ≠ q") && ok

	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))
	fmt.Fprintf(w, "  n = p × q = %s\n", n)
	fmt.Fprintf(w, "  phi_n = (p-1)(q-1) = %s\n", phi)

	if phi.Sign() <= 0 {
		mark(w, false, "phi_n must be positive")
		return false
	}

	g := numtheory.GCD(e, phi)
	ok = mark(w, g.Cmp(one) == 0, "gcd(e, phi_n) = %s", g) && ok

	d, err := numtheory.ModInverse(e, phi)
	if err != nil {
		mark(w, false, "d = e⁻¹ mod phi_n: %v", err)
		return false
	}
	fmt.Fprintf(w, "  d = e⁻¹ mod phi_n = %s\n", d)

	de := new(big.Int).Mul(d, e)
	de.Mod(de, phi)
	ok = mark(w, de.Cmp(one) == 0, "d × e mod phi_n = %s", de) && ok

	pub, err := rawrsa.NewPublicKey(e, n)
	if err != nil {
		mark(w, false, "public key: %v", err)
		return false
	}
	priv, err := rawrsa.NewPrivateKey(d, n)
	if err != nil {
		mark(w, false, "private key: %v", err)
		return false
	}

	c, err := rawrsa.Encrypt(m, pub)
	if err != nil {
		mark(w, false, "encrypt(%s): %v", m, err)
		return false
	}
	back, err := rawrsa.Decrypt(c, priv)
	if err != nil {
		mark(w, false, "decrypt(%s): %v", c, err)
		return false
	}
	ok = mark(w, back.Cmp(m) == 0, "encrypt(%s) = %s, decrypt → %s", m, c, back) && ok

	return ok
}

// reportError prints err unless it only signals failed checks, which have
// already been printed line by line.
func reportError(w io.Writer, err error) {
	if errors.Is(err, errCheckFailed) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}
