package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stealthrocket/shmfifo/internal/fifo"
	"github.com/stealthrocket/shmfifo/internal/print/human"
	"github.com/stealthrocket/shmfifo/internal/print/jsonprint"
	"github.com/stealthrocket/shmfifo/internal/print/textprint"
	"github.com/stealthrocket/shmfifo/internal/print/yamlprint"
	"github.com/stealthrocket/shmfifo/internal/stream"
)

const traceUsage = `
Usage:	shmfifo trace [options] <operation>...

   Replays operations on a fifo and shows its state after each of them. The
   bytes written are taken from a repeating alphabet indexed by stream offset,
   so the data read back shows which parts of the stream were reassembled.

Operations:
   enq:N       Write N bytes at the tail
   ooo:OFF:N   Write N bytes OFF bytes ahead of the tail
   deq:N       Read up to N bytes from the head
   peek:OFF:N  Copy up to N bytes starting OFF bytes after the head
   drop:N      Discard up to N bytes from the head
   init:P      Move an empty fifo's head and tail to position P

Options:
   -c, --config path      Path to the shmfifo configuration file (overrides SHMFIFOCONFIG)
   -h, --help             Show this usage information
   -n, --capacity size    Capacity of the fifo (default to 16 B)
   -o, --output format    Output format, one of: text, json, yaml
   -v, --verbose          For text output, display segments and data
`

func trace(ctx context.Context, args []string) error {
	var (
		capacity = human.Bytes(16)
		output   = outputFormat("text")
		verbose  = false
	)

	flagSet := newFlagSet("shmfifo trace", traceUsage)
	customVar(flagSet, &capacity, "n", "capacity")
	customVar(flagSet, &output, "o", "output")
	boolVar(flagSet, &verbose, "v", "verbose")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return usageError("shmfifo trace: expected at least one operation as argument")
	}

	ops := make([]traceOp, len(args))
	for i, arg := range args {
		op, err := parseTraceOp(arg)
		if err != nil {
			return usageError("shmfifo trace: %s", err)
		}
		ops[i] = op
	}

	f, err := fifo.New(capacity.Int())
	if err != nil {
		return err
	}
	defer f.Close()

	var w stream.WriteCloser[traceStep]
	switch output {
	case "json":
		w = jsonprint.NewWriter[traceStep](stdout)
	case "yaml":
		w = yamlprint.NewWriter[traceStep](stdout)
	default:
		if verbose {
			w = textprint.NewWriter[traceStep](stdout,
				textprint.Format[traceStep]("%+v\n"),
				textprint.Separator[traceStep](""),
			)
		} else {
			w = textprint.NewTableWriter[traceStep](stdout)
		}
	}

	t := &tracer{fifo: f}
	_, err = stream.Copy[traceStep](w, stream.ConvertReader(stream.NewReader(ops...), t.apply))
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

type traceOp struct {
	name   string
	offset int
	length int
	text   string
}

func parseTraceOp(s string) (traceOp, error) {
	name, rest, _ := strings.Cut(s, ":")
	op := traceOp{name: name, text: s}

	var params []string
	if rest != "" {
		params = strings.Split(rest, ":")
	}

	var want int
	switch name {
	case "enq", "deq", "drop", "init":
		want = 1
	case "ooo", "peek":
		want = 2
	default:
		return op, fmt.Errorf("unknown operation: %q", s)
	}
	if len(params) != want {
		return op, fmt.Errorf("operation %q expects %d parameters", s, want)
	}

	values := make([]int, want)
	for i, p := range params {
		v, err := strconv.Atoi(p)
		if err != nil {
			return op, fmt.Errorf("malformed operation %q: %w", s, err)
		}
		values[i] = v
	}
	if want == 2 {
		op.offset, op.length = values[0], values[1]
	} else {
		op.length = values[0]
	}
	return op, nil
}

// traceStep is the outcome of a trace operation.
type traceStep struct {
	Op         string `json:"op"              yaml:"op"              text:"OPERATION"`
	Result     int    `json:"result"          yaml:"result"          text:"RESULT"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty" text:"ERROR"`
	Data       string `json:"data,omitempty"  yaml:"data,omitempty"  text:"-"`
	fifo.State `yaml:",inline" text:"-"`

	dump string
}

func (s traceStep) Format(w fmt.State, v rune) {
	fmt.Fprintf(w, "%s => %d", s.Op, s.Result)
	if s.Error != "" {
		fmt.Fprintf(w, " (%s)", s.Error)
	}
	if w.Flag('+') {
		fmt.Fprintf(w, "\n%s", s.dump)
		if s.Data != "" {
			io.WriteString(w, "\n")
			q := textprint.QuoteBytes(w)
			io.WriteString(q, s.Data)
			io.WriteString(q, "\n")
		}
	}
}

// tracer applies operations to a fifo, writing bytes of a stream whose byte
// at offset i is alphabet[i%len(alphabet)].
type tracer struct {
	fifo *fifo.Fifo
	// stream offset of the fifo tail
	tail int
}

const alphabet = "abcdefghijklmnopqrstuvwxyz"

func streamBytes(offset, length int) []byte {
	b := make([]byte, max(length, 0))
	for i := range b {
		b[i] = alphabet[(offset+i)%len(alphabet)]
	}
	return b
}

func (t *tracer) apply(op traceOp) (traceStep, error) {
	var (
		n    int
		data []byte
		err  error
	)

	switch op.name {
	case "enq":
		n, err = t.fifo.Enqueue(streamBytes(t.tail, op.length))
		t.tail += n
	case "ooo":
		err = t.fifo.EnqueueWithOffset(op.offset, streamBytes(t.tail+op.offset, op.length))
		if err == nil {
			n = op.length
		}
	case "deq":
		data = make([]byte, max(op.length, 0))
		n, err = t.fifo.Dequeue(data)
	case "peek":
		if op.length < 0 {
			err = fifo.ErrNegative
			break
		}
		data = make([]byte, op.length)
		n, err = t.fifo.Peek(op.offset, data)
	case "drop":
		n, err = t.fifo.DequeueDrop(op.length)
	case "init":
		if !t.fifo.IsEmpty() || t.fifo.HasOOOData() {
			err = fmt.Errorf("cannot move the pointers of a fifo holding data")
			break
		}
		if op.length < 0 {
			err = fifo.ErrNegative
			break
		}
		t.fifo.InitPointers(uint32(op.length))
	}

	step := traceStep{
		Op:     op.text,
		Result: n,
		State:  t.fifo.State(),
		dump:   fmt.Sprintf("%+v", t.fifo),
	}
	if err != nil {
		step.Error = err.Error()
	}
	if data != nil && n > 0 {
		step.Data = string(data[:n])
	}
	// Corruption is the only error which ends the trace.
	if err == fifo.ErrCorrupt {
		return step, err
	}
	return step, nil
}
