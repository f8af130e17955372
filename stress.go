package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/stealthrocket/shmfifo/internal/chaos"
	"github.com/stealthrocket/shmfifo/internal/print/human"
	"github.com/stealthrocket/shmfifo/internal/print/jsonprint"
	"github.com/stealthrocket/shmfifo/internal/print/textprint"
	"github.com/stealthrocket/shmfifo/internal/print/yamlprint"
	"github.com/stealthrocket/shmfifo/internal/session"
	"github.com/stealthrocket/shmfifo/internal/stream"
	"golang.org/x/sync/errgroup"
)

const stressUsage = `
Usage:	shmfifo stress [options]

   Cuts a random stream into segments, shuffles and duplicates them, and
   delivers them out of order into the rx fifo of a session while a concurrent
   reader drains it. The command fails if the bytes read differ from the
   stream.

Options:
   -c, --config path      Path to the shmfifo configuration file (overrides SHMFIFOCONFIG)
   -d, --duplicate count  Percentage of segments delivered twice (default to 10)
   -h, --help             Show this usage information
   -n, --capacity size    Capacity of the rx fifo (default to session.rx-fifo-size)
   -o, --output format    Output format, one of: text, json, yaml
       --seed count       Seed of the random number generator (default to 1)
       --segment size     Maximum size of delivered segments (default to 1 KiB)
   -s, --size size        Size of the stream (default to 1 MiB)
   -v, --verbose          Log session events to stderr
   -w, --window count     Maximum number of positions a segment is delivered early (default to 16)
`

type stressReport struct {
	Session  session.ID    `json:"session"   yaml:"session"   text:"SESSION"`
	Capacity human.Bytes   `json:"capacity"  yaml:"capacity"  text:"CAPACITY"`
	Stream   human.Bytes   `json:"stream"    yaml:"stream"    text:"STREAM"`
	Segments int           `json:"segments"  yaml:"segments"  text:"SEGMENTS"`
	Stalls   int           `json:"stalls"    yaml:"stalls"    text:"STALLS"`
	Elapsed  time.Duration `json:"elapsed"   yaml:"elapsed"   text:"ELAPSED"`
	Verified bool          `json:"verified"  yaml:"verified"  text:"VERIFIED"`
}

func stress(ctx context.Context, args []string) error {
	var (
		capacity  human.Bytes
		size      = human.MiB
		segment   = human.KiB
		window    = count(16)
		duplicate = count(10)
		seed      = count(1)
		output    = outputFormat("text")
		verbose   = false
	)

	flagSet := newFlagSet("shmfifo stress", stressUsage)
	customVar(flagSet, &capacity, "n", "capacity")
	customVar(flagSet, &size, "s", "size")
	customVar(flagSet, &segment, "segment")
	customVar(flagSet, &window, "w", "window")
	customVar(flagSet, &duplicate, "d", "duplicate")
	customVar(flagSet, &seed, "seed")
	customVar(flagSet, &output, "o", "output")
	boolVar(flagSet, &verbose, "v", "verbose")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return usageError("shmfifo stress: unexpected arguments: %q", args)
	}
	if segment == 0 {
		return usageError("shmfifo stress: segment size must be positive")
	}
	if duplicate > 100 {
		return usageError("shmfifo stress: duplicate percentage must be at most 100")
	}

	setVerbose(verbose)
	defer setVerbose(false)

	config, err := loadConfig()
	if err != nil {
		return err
	}
	if capacity != 0 {
		config.Session.RxFifoSize = capacity
	}
	if err := config.Validate(); err != nil {
		return err
	}

	seg, err := config.OpenSegment()
	if err != nil {
		return err
	}
	defer seg.Close()

	manager := config.NewManager(seg, nil)
	defer manager.Shutdown()

	sess, err := manager.Open()
	if err != nil {
		return err
	}

	prng := rand.New(rand.NewSource(int64(seed)))
	data := make([]byte, size.Int())
	prng.Read(data)

	schedule := chaos.Reorder(prng, data, segment.Int(), int(window))
	schedule = chaos.Duplicate(prng, schedule, float64(duplicate)/100)

	report := stressReport{
		Session:  sess.ID(),
		Capacity: human.Bytes(sess.Rx().Capacity()),
		Stream:   size,
		Segments: len(schedule),
	}

	start := time.Now()
	check := &streamChecker{want: data}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return session.Pipe(ctx, sess, check, nil)
	})
	group.Go(func() error {
		defer sess.Shutdown()
		stalls, err := deliver(ctx, sess, schedule)
		report.Stalls = stalls
		return err
	})
	if err := group.Wait(); err != nil {
		return err
	}
	report.Elapsed = time.Since(start)

	if check.off != len(data) {
		return fmt.Errorf("stream truncated: received %d of %d bytes", check.off, len(data))
	}
	report.Verified = true

	var w stream.WriteCloser[stressReport]
	switch output {
	case "json":
		w = jsonprint.NewWriter[stressReport](stdout)
	case "yaml":
		w = yamlprint.NewWriter[stressReport](stdout)
	default:
		w = textprint.NewTableWriter[stressReport](stdout)
	}
	if _, err := w.Write([]stressReport{report}); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// deliver pushes the schedule to the dataplane side of s, waiting for the
// reader to make room when the rx fifo is full. It returns the number of times
// delivery had to wait.
func deliver(ctx context.Context, s *session.Session, schedule []chaos.Fragment) (stalls int, err error) {
	d := chaos.NewDelivery(s)

	for _, f := range schedule {
		if err := d.Push(f); err != nil {
			return stalls, err
		}
		if d.Pending() > 0 {
			if err := d.Retry(); err != nil {
				return stalls, err
			}
		}
	}

	for d.Pending() > 0 {
		if err := ctx.Err(); err != nil {
			return stalls, err
		}
		stalls++
		runtime.Gosched()
		if err := d.Retry(); err != nil {
			return stalls, err
		}
	}
	return stalls, nil
}

// streamChecker is an io.Writer comparing the bytes written to it with the
// expected stream.
type streamChecker struct {
	want []byte
	off  int
}

func (c *streamChecker) Write(b []byte) (int, error) {
	end := c.off + len(b)
	if end > len(c.want) {
		return 0, fmt.Errorf("received %d bytes past the end of the stream", end-len(c.want))
	}
	if i := mismatch(b, c.want[c.off:end]); i >= 0 {
		return 0, fmt.Errorf("stream mismatch at offset %d", c.off+i)
	}
	c.off = end
	return len(b), nil
}

func mismatch(a, b []byte) int {
	if bytes.Equal(a, b) {
		return -1
	}
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return len(a)
}
