package main

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/rsabench/pkg/entropy"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDefaultScenario(t *testing.T) {
	out, err := run(t)
	require.NoError(t, err)

	assert.NotContains(t, out, "✗")
	assert.Contains(t, out, "n = p × q = 47266861")
	assert.Contains(t, out, "phi_n = (p-1)(q-1) = 47253052")
	assert.Contains(t, out, "d = e⁻¹ mod phi_n = 7609029")
	assert.Contains(t, out, "encrypt(39) = 3729520, decrypt → 39")
}

func TestCompositeFactorFails(t *testing.T) {
	out, err := run(t, "-p", "7551")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "✗ p = 7551 is prime")
}

func TestSharedFactorExponentFails(t *testing.T) {
	out, err := run(t, "-e", "4")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "✗ gcd(e, phi_n) = 4")
}

func TestMessageOutOfRangeFails(t *testing.T) {
	out, err := run(t, "-m", "47266861")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.True(t, strings.Contains(out, "✗ encrypt(47266861)"), out)
}

func TestBadInteger(t *testing.T) {
	_, err := run(t, "-q", "six")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errCheckFailed)
}

func TestCheckSmallKey(t *testing.T) {
	var out bytes.Buffer
	ok := check(&out, entropy.NewSeeded(1), 10, big.NewInt(5), big.NewInt(7), big.NewInt(5), big.NewInt(2))
	assert.True(t, ok, out.String())
}

func TestReportError(t *testing.T) {
	var out bytes.Buffer
	reportError(&out, fmt.Errorf("checking key: %w", errCheckFailed))
	assert.Empty(t, out.String())

	reportError(&out, fmt.Errorf("invalid value for -p"))
	assert.Equal(t, "Error: invalid value for -p\n", out.String())
}
