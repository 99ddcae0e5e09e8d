package entropy

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourcesRespectBounds(t *testing.T) {
	sources := map[string]Source{
		"crypto": Default(),
		"seeded": NewSeeded(7),
		"locked": Locked(NewSeeded(7)),
	}
	max := big.NewInt(10)

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				v, err := src.Int(max)
				require.NoError(t, err)
				assert.True(t, v.Sign() >= 0 && v.Cmp(max) < 0, "Int out of range: %s", v)
			}
			for _, n := range []int{1, 2, 3, 8, 17, 64, 130} {
				v, err := src.Bits(n)
				require.NoError(t, err)
				assert.Equal(t, n, v.BitLen(), "Bits(%d) returned %s", n, v)
			}
		})
	}
}

func TestInvalidBounds(t *testing.T) {
	for _, src := range []Source{Default(), NewSeeded(1)} {
		_, err := src.Int(big.NewInt(0))
		assert.ErrorIs(t, err, ErrInvalidBound)
		_, err = src.Int(nil)
		assert.ErrorIs(t, err, ErrInvalidBound)
		_, err = src.Bits(0)
		assert.ErrorIs(t, err, ErrInvalidBound)
	}
}

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 20; i++ {
		x, err := a.Bits(128)
		require.NoError(t, err)
		y, err := b.Bits(128)
		require.NoError(t, err)
		assert.Zero(t, x.Cmp(y))
	}
}

func TestLockedSharedAcrossGoroutines(t *testing.T) {
	src := Locked(NewSeeded(3))
	assert.Same(t, src, Locked(src))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if _, err := src.Bits(64); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestContextSourceCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewContextSource(ctx, rand.Reader)

	_, err := src.Bits(4096)
	require.NoError(t, err)

	cancel()
	_, err = src.Bits(64)
	assert.True(t, errors.Is(err, context.Canceled), "expected context.Canceled, got %v", err)
}

func TestContextReaderChunks(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 3*readChunk+5)
	cr := &contextReader{ctx: context.Background(), reader: bytes.NewReader(data)}

	buf := make([]byte, len(data))
	n, err := cr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, buf)
}

func TestWithContextStopsSeededDraws(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := WithContext(ctx, NewSeeded(7))

	_, err := src.Int(big.NewInt(100))
	require.NoError(t, err)
	_, err = src.Bits(64)
	require.NoError(t, err)

	cancel()
	_, err = src.Int(big.NewInt(100))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = src.Bits(64)
	assert.ErrorIs(t, err, context.Canceled)
}
