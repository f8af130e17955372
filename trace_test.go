package main

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stealthrocket/shmfifo/internal/assert"
)

func decodeTrace(t *testing.T, s string) (steps []traceStep) {
	t.Helper()
	d := json.NewDecoder(strings.NewReader(s))
	for {
		var step traceStep
		if err := d.Decode(&step); err != nil {
			if errors.Is(err, io.EOF) {
				return steps
			}
			t.Fatal(err)
		}
		steps = append(steps, step)
	}
}

var traceTests = tests{
	"show the trace command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "trace", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo trace ")
		assert.Equal(t, stderr, "")
	},

	"calling trace without operations causes an error": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "trace")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stderr, "shmfifo trace: expected at least one operation as argument\n")
	},

	"an unknown operation causes an error": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "trace", "push:1")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stderr, "shmfifo trace: unknown operation: \"push:1\"\n")
	},

	"an operation with missing parameters causes an error": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "trace", "ooo:4")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stderr, "shmfifo trace: operation \"ooo:4\" expects 2 parameters\n")
	},

	"out of order data is reassembled": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "trace", "-o", "json", "-n", "16",
			"enq:10", "ooo:2:4", "deq:10", "enq:2", "deq:16")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		steps := decodeTrace(t, stdout)
		assert.Equal(t, len(steps), 5)

		assert.Equal(t, steps[0].Result, 10)
		assert.Equal(t, steps[0].Size, 10)

		assert.Equal(t, steps[1].Result, 4)
		assert.Equal(t, steps[1].Size, 10)
		assert.Equal(t, steps[1].NumSegments, 1)

		assert.Equal(t, steps[2].Data, "abcdefghij")
		assert.Equal(t, steps[2].Size, 0)

		assert.Equal(t, steps[3].Result, 6)
		assert.Equal(t, steps[3].Size, 6)
		assert.Equal(t, steps[3].NumSegments, 0)

		assert.Equal(t, steps[4].Data, "klmnop")
		assert.Equal(t, steps[4].Head, steps[4].Tail)
	},

	"operation errors are recorded without ending the trace": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "trace", "-o", "json", "-n", "8",
			"deq:1", "ooo:6:4", "enq:8", "enq:1")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		steps := decodeTrace(t, stdout)
		assert.Equal(t, len(steps), 4)
		assert.Equal(t, steps[0].Error, "fifo empty")
		assert.Equal(t, steps[1].Error, "fifo full")
		assert.Equal(t, steps[2].Error, "")
		assert.Equal(t, steps[2].Result, 8)
		assert.Equal(t, steps[3].Error, "fifo full")
	},

	"init moves the pointers of an empty fifo": func(t *testing.T) {
		stdout, _, exitCode := execute(t, "trace", "-o", "json", "-n", "8",
			"init:6", "enq:4", "enq:1", "init:0")
		assert.Equal(t, exitCode, 0)

		steps := decodeTrace(t, stdout)
		assert.Equal(t, len(steps), 4)
		assert.Equal(t, steps[0].Head, 6)
		assert.Equal(t, steps[0].Tail, 6)
		assert.Equal(t, steps[1].Tail, 2)
		assert.Equal(t, steps[2].Tail, 3)
		assert.Equal(t, steps[3].Error, "cannot move the pointers of a fifo holding data")
	},

	"the table output has one row per operation": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "trace", "-n", "16", "enq:10", "ooo:2:4", "deq:10", "enq:2")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
		assert.Equal(t, len(lines), 5)
		assert.EqualAll(t, strings.Fields(lines[0]),
			[]string{"OPERATION", "RESULT", "ERROR", "CAPACITY", "HEAD", "TAIL", "SIZE", "FREE", "SEGMENTS"})
		assert.EqualAll(t, strings.Fields(lines[2]),
			[]string{"ooo:2:4", "4", "16", "0", "10", "10", "6", "1"})
		assert.EqualAll(t, strings.Fields(lines[4]),
			[]string{"enq:2", "6", "16", "10", "0", "6", "10", "0"})
	},

	"the verbose output shows segments and data": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "trace", "-v", "-n", "16", "ooo:2:4", "enq:3", "deq:4")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")
		assert.HasPrefix(t, stdout, "ooo:2:4 => 4\ncursize 0 nitems 16\n head 0 tail 0\n ooo pool 1 active elts\n  pos 2, len 4, next -1, prev -1\n")
		assert.True(t, strings.Contains(stdout, "deq:4 => 4\n"))
		assert.True(t, strings.Contains(stdout, "    | abcd\n"))
	},
}
