package textprint

import (
	"bufio"
	"fmt"
	"io"

	"github.com/stealthrocket/shmfifo/internal/stream"
)

const (
	defaultFormat    = "%v"
	defaultSeparator = "--------------------------------------------------------------------------------\n"
)

// WriterOption configures a writer created by NewWriter.
type WriterOption[T any] func(*writer[T])

// Format sets the fmt verb used to print each value.
func Format[T any](format string) WriterOption[T] {
	return func(w *writer[T]) { w.format = format }
}

// Separator sets the text written between consecutive values.
func Separator[T any](separator string) WriterOption[T] {
	return func(w *writer[T]) { w.separator = separator }
}

// NewWriter returns a writer printing each value with fmt. The output is
// buffered until Close.
func NewWriter[T any](w io.Writer, opts ...WriterOption[T]) stream.WriteCloser[T] {
	pw := &writer[T]{
		output:    bufio.NewWriter(w),
		format:    defaultFormat,
		separator: defaultSeparator,
	}
	for _, opt := range opts {
		opt(pw)
	}
	return pw
}

type writer[T any] struct {
	output    *bufio.Writer
	format    string
	separator string
	written   bool
}

func (w *writer[T]) Write(values []T) (int, error) {
	for i := range values {
		if w.written {
			if _, err := w.output.WriteString(w.separator); err != nil {
				return i, err
			}
		}
		w.written = true
		if _, err := fmt.Fprintf(w.output, w.format, values[i]); err != nil {
			return i, err
		}
	}
	return len(values), nil
}

func (w *writer[T]) Close() error {
	return w.output.Flush()
}
