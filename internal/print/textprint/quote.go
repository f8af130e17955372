package textprint

import (
	"bytes"
	"io"
)

const quotePrefix = "    | "

// QuoteBytes returns a writer indenting each line written to w behind a
// "    | " margin. The final newline of the output is omitted.
func QuoteBytes(w io.Writer) io.Writer {
	return &quoter{output: w, startOfLine: true}
}

type quoter struct {
	output io.Writer
	// A newline was written and is held back until more output follows.
	pendingNewline bool
	startOfLine    bool
}

func (q *quoter) Write(b []byte) (int, error) {
	n := len(b)
	for len(b) > 0 {
		if q.pendingNewline {
			q.pendingNewline = false
			if _, err := io.WriteString(q.output, "\n"); err != nil {
				return n - len(b), err
			}
		}
		if q.startOfLine {
			q.startOfLine = false
			if _, err := io.WriteString(q.output, quotePrefix); err != nil {
				return n - len(b), err
			}
		}

		line := b
		if i := bytes.IndexByte(b, '\n'); i >= 0 {
			line = b[:i]
			q.pendingNewline = true
			q.startOfLine = true
			b = b[i+1:]
		} else {
			b = nil
		}
		if _, err := q.output.Write(line); err != nil {
			return n - len(b) - len(line), err
		}
	}
	return n, nil
}
