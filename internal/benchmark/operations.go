package benchmark

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/user/rsabench/pkg/entropy"
	"github.com/user/rsabench/pkg/rawrsa"
)

const (
	OpKeygen  = "keygen"
	OpEncrypt = "encrypt"
	OpDecrypt = "decrypt"
)

var ErrRoundTrip = errors.New("decrypted value does not match the original message")

// Iteration runs one timed unit of work and reports how many prime
// candidates it tested.
type Iteration func() (candidates int, err error)

// Operation prepares per-worker state outside the timed section and returns
// the iteration to time.
type Operation interface {
	Name() string
	Prepare(src entropy.Source, rounds, bitLength int) (Iteration, error)
}

func OperationNames() []string {
	return []string{OpKeygen, OpEncrypt, OpDecrypt}
}

func LookupOperation(name string) (Operation, error) {
	switch strings.ToLower(name) {
	case OpKeygen:
		return keygenOperation{}, nil
	case OpEncrypt:
		return encryptOperation{}, nil
	case OpDecrypt:
		return decryptOperation{}, nil
	default:
		return nil, fmt.Errorf("unknown operation: %s", name)
	}
}

// keygenOperation times Generate and verifies each new pair with one round trip.
type keygenOperation struct{}

func (keygenOperation) Name() string { return OpKeygen }

func (keygenOperation) Prepare(src entropy.Source, rounds, bitLength int) (Iteration, error) {
	var last rawrsa.Trace
	gen := rawrsa.NewGenerator(src,
		rawrsa.WithRounds(rounds),
		rawrsa.WithTrace(func(tr rawrsa.Trace) { last = tr }),
	)

	return func() (int, error) {
		kp, err := gen.Generate(bitLength)
		if err != nil {
			return 0, err
		}
		if err := roundTrip(src, kp); err != nil {
			return last.PrimeCandidates, err
		}
		return last.PrimeCandidates, nil
	}, nil
}

type encryptOperation struct{}

func (encryptOperation) Name() string { return OpEncrypt }

func (encryptOperation) Prepare(src entropy.Source, rounds, bitLength int) (Iteration, error) {
	kp, m, err := setupKey(src, rounds, bitLength)
	if err != nil {
		return nil, err
	}

	return func() (int, error) {
		_, err := rawrsa.Encrypt(m, kp.Public())
		return 0, err
	}, nil
}

type decryptOperation struct{}

func (decryptOperation) Name() string { return OpDecrypt }

func (decryptOperation) Prepare(src entropy.Source, rounds, bitLength int) (Iteration, error) {
	kp, m, err := setupKey(src, rounds, bitLength)
	if err != nil {
		return nil, err
	}
	c, err := rawrsa.Encrypt(m, kp.Public())
	if err != nil {
		return nil, err
	}

	return func() (int, error) {
		out, err := rawrsa.Decrypt(c, kp.Private())
		if err != nil {
			return 0, err
		}
		if out.Cmp(m) != 0 {
			return 0, ErrRoundTrip
		}
		return 0, nil
	}, nil
}

func setupKey(src entropy.Source, rounds, bitLength int) (*rawrsa.KeyPair, *big.Int, error) {
	kp, err := rawrsa.NewGenerator(src, rawrsa.WithRounds(rounds)).Generate(bitLength)
	if err != nil {
		return nil, nil, fmt.Errorf("generating benchmark key: %w", err)
	}
	m, err := src.Int(kp.Public().N())
	if err != nil {
		return nil, nil, fmt.Errorf("drawing benchmark message: %w", err)
	}
	return kp, m, nil
}

func roundTrip(src entropy.Source, kp *rawrsa.KeyPair) error {
	m, err := src.Int(kp.Public().N())
	if err != nil {
		return err
	}
	c, err := rawrsa.Encrypt(m, kp.Public())
	if err != nil {
		return err
	}
	out, err := rawrsa.Decrypt(c, kp.Private())
	if err != nil {
		return err
	}
	if out.Cmp(m) != 0 {
		return ErrRoundTrip
	}
	return nil
}
