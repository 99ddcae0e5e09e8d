package entropy

import (
	"context"
	"io"
	"math/big"
)

// readChunk bounds how many bytes are read between cancellation checks.
const readChunk = 1024

// contextReader wraps a reader with context cancellation checks
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

// NewContextSource returns a source whose draws fail with ctx.Err() once ctx
// is done. Key generation has no cancellation of its own; this is how a caller
// bounds it from outside.
func NewContextSource(ctx context.Context, r io.Reader) *ReaderSource {
	return NewReaderSource(&contextReader{ctx: ctx, reader: r})
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) <= readChunk {
		return cr.reader.Read(p)
	}

	total := 0
	for total < len(p) {
		if err := cr.ctx.Err(); err != nil {
			return total, err
		}
		end := total + readChunk
		if end > len(p) {
			end = len(p)
		}
		n, err := cr.reader.Read(p[total:end])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ctxSource rejects draws once ctx is done. Sources that never block, such as
// SeededSource, need it to be cancellable at all.
type ctxSource struct {
	ctx context.Context
	src Source
}

// WithContext wraps src so that Int and Bits fail with ctx.Err() once ctx is
// done.
func WithContext(ctx context.Context, src Source) Source {
	return &ctxSource{ctx: ctx, src: src}
}

func (s *ctxSource) Int(max *big.Int) (*big.Int, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	return s.src.Int(max)
}

func (s *ctxSource) Bits(n int) (*big.Int, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	return s.src.Bits(n)
}
