package session

import (
	"context"
	"errors"
	"io"

	"github.com/stealthrocket/shmfifo/internal/buffer"
	"golang.org/x/sync/errgroup"
)

var pipeBuffers = buffer.NewPool(16 * 1024)

// Pipe runs the application side of s. Bytes read from src are written to the
// tx fifo and bytes read from the rx fifo are written to dst. Either of dst or
// src may be nil to skip a direction.
//
// The rx direction completes when the session is shut down and drained, the
// tx direction when src returns io.EOF. The first error cancels both.
func Pipe(ctx context.Context, s *Session, dst io.Writer, src io.Reader) error {
	group, ctx := errgroup.WithContext(ctx)

	if dst != nil {
		group.Go(func() error {
			buf := pipeBuffers.Get()
			defer buffer.Release(&buf, pipeBuffers)
			for {
				n, err := s.ReadContext(ctx, buf.Data)
				if n > 0 {
					if _, werr := dst.Write(buf.Data[:n]); werr != nil {
						return werr
					}
				}
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
			}
		})
	}

	if src != nil {
		group.Go(func() error {
			buf := pipeBuffers.Get()
			defer buffer.Release(&buf, pipeBuffers)
			for {
				n, err := src.Read(buf.Data)
				if n > 0 {
					if _, werr := s.WriteContext(ctx, buf.Data[:n]); werr != nil {
						return werr
					}
				}
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
			}
		})
	}

	return group.Wait()
}
