package main

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/stealthrocket/shmfifo/internal/fifo"
	"github.com/stealthrocket/shmfifo/internal/print/human"
	"github.com/stealthrocket/shmfifo/internal/print/jsonprint"
	"github.com/stealthrocket/shmfifo/internal/print/textprint"
	"github.com/stealthrocket/shmfifo/internal/print/yamlprint"
	"github.com/stealthrocket/shmfifo/internal/stream"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const benchUsage = `
Usage:	shmfifo bench [options]

   Measures the throughput of a fifo allocated in the configured shared memory
   segment, with one goroutine writing chunks at the tail while another reads
   them from the head.

Options:
   -c, --config path      Path to the shmfifo configuration file (overrides SHMFIFOCONFIG)
       --chunk size       Size of the chunks written by the producer (default to 4 KiB)
   -h, --help             Show this usage information
   -n, --capacity size    Capacity of the fifo (default to session.rx-fifo-size)
   -o, --output format    Output format, one of: text, json, yaml
   -r, --rate size        Limit the producer to this many bytes per second
   -s, --size size        Number of bytes to transfer (default to 64 MiB)
   -z, --zero-copy        Access the ring in place instead of copying chunks
`

type benchReport struct {
	Capacity   human.Bytes   `json:"capacity"   yaml:"capacity"   text:"CAPACITY"`
	Chunk      human.Bytes   `json:"chunk"      yaml:"chunk"      text:"CHUNK"`
	Transfer   human.Bytes   `json:"transfer"   yaml:"transfer"   text:"TRANSFER"`
	Elapsed    time.Duration `json:"elapsed"    yaml:"elapsed"    text:"ELAPSED"`
	Throughput human.Bytes   `json:"throughput" yaml:"throughput" text:"THROUGHPUT/S"`
	Full       int           `json:"full"       yaml:"full"       text:"FULL"`
	Empty      int           `json:"empty"      yaml:"empty"      text:"EMPTY"`
}

func bench(ctx context.Context, args []string) error {
	var (
		capacity human.Bytes
		chunk    = 4 * human.KiB
		size     = 64 * human.MiB
		limit    human.Bytes
		output   = outputFormat("text")
		zeroCopy = false
	)

	flagSet := newFlagSet("shmfifo bench", benchUsage)
	customVar(flagSet, &capacity, "n", "capacity")
	customVar(flagSet, &chunk, "chunk")
	customVar(flagSet, &size, "s", "size")
	customVar(flagSet, &limit, "r", "rate")
	customVar(flagSet, &output, "o", "output")
	boolVar(flagSet, &zeroCopy, "z", "zero-copy")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return usageError("shmfifo bench: unexpected arguments: %q", args)
	}
	if chunk == 0 {
		return usageError("shmfifo bench: chunk size must be positive")
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}
	if capacity == 0 {
		capacity = config.Session.RxFifoSize
	}
	if capacity > fifo.MaxCapacity {
		return usageError("shmfifo bench: capacity too large: %s", capacity)
	}

	seg, err := config.OpenSegment()
	if err != nil {
		return err
	}
	defer seg.Close()

	f, err := fifo.New(capacity.Int(), fifo.WithSegment(seg))
	if err != nil {
		return err
	}
	defer f.Close()

	b := &benchmark{
		fifo:     f,
		chunk:    chunk.Int(),
		size:     size.Int(),
		zeroCopy: zeroCopy,
	}
	if limit != 0 {
		b.limiter = rate.NewLimiter(rate.Limit(limit), b.chunk)
	}

	start := time.Now()
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return b.produce(ctx) })
	group.Go(func() error { return b.consume(ctx) })
	if err := group.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	report := benchReport{
		Capacity: human.Bytes(f.Capacity()),
		Chunk:    chunk,
		Transfer: size,
		Elapsed:  elapsed,
		Full:     b.full,
		Empty:    b.empty,
	}
	if seconds := elapsed.Seconds(); seconds > 0 {
		report.Throughput = human.Bytes(float64(size) / seconds)
	}

	var w stream.WriteCloser[benchReport]
	switch output {
	case "json":
		w = jsonprint.NewWriter[benchReport](stdout)
	case "yaml":
		w = yamlprint.NewWriter[benchReport](stdout)
	default:
		w = textprint.NewTableWriter[benchReport](stdout)
	}
	if _, err := w.Write([]benchReport{report}); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

type benchmark struct {
	fifo     *fifo.Fifo
	chunk    int
	size     int
	zeroCopy bool
	limiter  *rate.Limiter
	// Number of times the producer found the fifo full, and the consumer found
	// it empty. Each counter is owned by one side.
	full  int
	empty int
}

func (b *benchmark) produce(ctx context.Context) error {
	data := make([]byte, b.chunk)
	for i := range data {
		data[i] = byte(i)
	}

	for sent := 0; sent < b.size; {
		n := min(b.chunk, b.size-sent)
		if b.limiter != nil {
			if err := b.limiter.WaitN(ctx, n); err != nil {
				return err
			}
		}
		for chunk := data[:n]; len(chunk) > 0; {
			wn, err := b.enqueue(chunk)
			if err != nil {
				if !errors.Is(err, fifo.ErrFull) {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				b.full++
				runtime.Gosched()
				continue
			}
			chunk = chunk[wn:]
		}
		sent += n
	}
	return nil
}

func (b *benchmark) enqueue(chunk []byte) (int, error) {
	if !b.zeroCopy {
		return b.fifo.Enqueue(chunk)
	}
	first, second := b.fifo.WritableSlices()
	n := copy(first, chunk)
	n += copy(second, chunk[n:])
	if n == 0 {
		return 0, fifo.ErrFull
	}
	return b.fifo.EnqueueNoCopy(n)
}

func (b *benchmark) consume(ctx context.Context) error {
	buf := make([]byte, b.chunk)

	for received := 0; received < b.size; {
		n, err := b.dequeue(buf)
		if err != nil {
			if !errors.Is(err, fifo.ErrEmpty) {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			b.empty++
			runtime.Gosched()
			continue
		}
		received += n
	}
	return nil
}

func (b *benchmark) dequeue(buf []byte) (int, error) {
	if !b.zeroCopy {
		return b.fifo.Dequeue(buf)
	}
	first, second := b.fifo.ReadableSlices()
	n := len(first) + len(second)
	if n == 0 {
		return 0, fifo.ErrEmpty
	}
	return b.fifo.DequeueNoCopy(n)
}
