package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/user/rsabench/pkg/numtheory"
	"github.com/user/rsabench/pkg/rawrsa"
)

func newDemoCmd() *cobra.Command {
	o := &keyOptions{}
	var message string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate a key, show every intermediate value and round-trip a message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseArg("message", message)
			if err != nil {
				return err
			}

			var tr rawrsa.Trace
			gen := rawrsa.NewGenerator(o.source(),
				rawrsa.WithRounds(o.rounds),
				rawrsa.WithTrace(func(t rawrsa.Trace) { tr = t }),
			)
			kp, err := gen.Generate(o.bits)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "p = %s\n", tr.P)
			fmt.Fprintf(w, "q = %s\n", tr.Q)
			fmt.Fprintf(w, "n = %s\n", tr.N)
			fmt.Fprintf(w, "phi_n = %s\n", tr.Phi)
			fmt.Fprintf(w, "e = %s\n", tr.E)
			fmt.Fprintf(w, "d = %s\n", tr.D)
			fmt.Fprintf(w, "gcd(e, phi_n) = %s\n", numtheory.GCD(tr.E, tr.Phi))
			check := new(big.Int).Mul(tr.D, tr.E)
			fmt.Fprintf(w, "d*e mod phi_n = %s\n", check.Mod(check, tr.Phi))
			fmt.Fprintf(w, "prime candidates tested: %d\n", tr.PrimeCandidates)

			c, err := rawrsa.Encrypt(m, kp.Public())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "encrypt(%s) = %s\n", m, c)

			back, err := rawrsa.Decrypt(c, kp.Private())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "decrypt(%s) = %s\n", c, back)
			return nil
		},
	}
	o.register(cmd, 512)
	cmd.Flags().StringVarP(&message, "message", "m", "39", "Integer message to encrypt, in [0, n)")
	return cmd
}
