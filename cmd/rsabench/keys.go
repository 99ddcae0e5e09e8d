package main

import (
	"fmt"
	"io"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/user/rsabench/pkg/entropy"
	"github.com/user/rsabench/pkg/rawrsa"
)

type keyOptions struct {
	bits   int
	rounds int
	seed   int64
}

func (o *keyOptions) register(cmd *cobra.Command, defaultBits int) {
	cmd.Flags().IntVarP(&o.bits, "bits", "b", defaultBits, "Size of each prime in bits")
	cmd.Flags().IntVarP(&o.rounds, "rounds", "r", rawrsa.DefaultRounds, "Miller-Rabin rounds per prime candidate")
	cmd.Flags().Int64Var(&o.seed, "seed", 0, "Seed for a reproducible, insecure key (0 uses crypto/rand)")
}

func (o *keyOptions) source() entropy.Source {
	if o.seed != 0 {
		return entropy.NewSeeded(o.seed)
	}
	return entropy.Default()
}

func newKeygenCmd() *cobra.Command {
	o := &keyOptions{}
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair and print e, d and n",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := rawrsa.NewGenerator(o.source(), rawrsa.WithRounds(o.rounds)).Generate(o.bits)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "modulus bits: %d\n", kp.ModulusBits())
			fmt.Fprintf(w, "e = %s\n", kp.Public().E())
			fmt.Fprintf(w, "d = %s\n", kp.Private().D())
			fmt.Fprintf(w, "n = %s\n", kp.Public().N())
			return nil
		},
	}
	o.register(cmd, 512)
	return cmd
}

type applyOptions struct {
	exponent string
	modulus  string
}

func parseArg(name, value string) (*big.Int, error) {
	x, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%s must be a decimal integer, got %q", name, value)
	}
	return x, nil
}

func newApplyCmd(use, short, argName string, apply func(w io.Writer, exp, n, x *big.Int) error) *cobra.Command {
	o := &applyOptions{}
	cmd := &cobra.Command{
		Use:   use + " <" + argName + ">",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := parseArg("exponent", o.exponent)
			if err != nil {
				return err
			}
			n, err := parseArg("modulus", o.modulus)
			if err != nil {
				return err
			}
			x, err := parseArg(argName, args[0])
			if err != nil {
				return err
			}
			return apply(cmd.OutOrStdout(), exp, n, x)
		},
	}
	cmd.Flags().StringVarP(&o.exponent, "exponent", "e", "", "Key exponent (e to encrypt, d to decrypt)")
	cmd.Flags().StringVarP(&o.modulus, "modulus", "n", "", "Key modulus n")
	cmd.MarkFlagRequired("exponent")
	cmd.MarkFlagRequired("modulus")
	return cmd
}

func newEncryptCmd() *cobra.Command {
	return newApplyCmd("encrypt", "Compute m^e mod n", "message", func(w io.Writer, e, n, m *big.Int) error {
		pub, err := rawrsa.NewPublicKey(e, n)
		if err != nil {
			return err
		}
		c, err := rawrsa.Encrypt(m, pub)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, c)
		return nil
	})
}

func newDecryptCmd() *cobra.Command {
	return newApplyCmd("decrypt", "Compute c^d mod n", "ciphertext", func(w io.Writer, d, n, c *big.Int) error {
		priv, err := rawrsa.NewPrivateKey(d, n)
		if err != nil {
			return err
		}
		m, err := rawrsa.Decrypt(c, priv)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, m)
		return nil
	})
}
