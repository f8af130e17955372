// Package stream defines streams of typed values, used to connect the
// producers of results to the writers printing them.
package stream

import (
	"errors"
	"io"
)

// Reader produces a stream of values of type T. Read returns io.EOF at the end
// of the stream, possibly along with the last values.
type Reader[T any] interface {
	Read(values []T) (int, error)
}

// Writer consumes a stream of values of type T.
type Writer[T any] interface {
	Write(values []T) (int, error)
}

// WriteCloser is a Writer which must be closed to flush its output.
type WriteCloser[T any] interface {
	Writer[T]
	io.Closer
}

// NewReader returns a Reader producing values.
func NewReader[T any](values ...T) Reader[T] {
	return &sliceReader[T]{values: values}
}

type sliceReader[T any] struct{ values []T }

func (r *sliceReader[T]) Read(values []T) (int, error) {
	if len(r.values) == 0 {
		return 0, io.EOF
	}
	n := copy(values, r.values)
	r.values = r.values[n:]
	return n, nil
}

const batchSize = 32

// ReadAll returns the values of r up to the end of the stream.
func ReadAll[T any](r Reader[T]) ([]T, error) {
	var all []T
	var batch [batchSize]T
	for {
		n, err := r.Read(batch[:])
		all = append(all, batch[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return all, err
		}
	}
}

// Copy writes the values of r to w up to the end of the stream, and returns
// the number of values written.
func Copy[T any](w Writer[T], r Reader[T]) (int64, error) {
	var batch [batchSize]T
	var total int64
	for {
		n, err := r.Read(batch[:])
		if n > 0 {
			wn, werr := w.Write(batch[:n])
			total += int64(wn)
			if werr != nil {
				return total, werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return total, err
		}
	}
}
