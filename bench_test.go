package main

import (
	"encoding/json"
	"testing"

	"github.com/stealthrocket/shmfifo/internal/assert"
	"github.com/stealthrocket/shmfifo/internal/print/human"
)

func runBench(t *testing.T, args ...string) benchReport {
	t.Helper()
	stdout, stderr, exitCode := execute(t, append([]string{"bench", "-o", "json"}, args...)...)
	assert.Equal(t, exitCode, 0)
	assert.Equal(t, stderr, "")

	var report benchReport
	assert.OK(t, json.Unmarshal([]byte(stdout), &report))
	return report
}

var benchTests = tests{
	"show the bench command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "bench", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo bench ")
		assert.Equal(t, stderr, "")
	},

	"the capacity defaults to the configured rx fifo size": func(t *testing.T) {
		report := runBench(t, "--size", "1MiB")
		assert.Equal(t, report.Capacity, 16*human.KiB)
		assert.Equal(t, report.Transfer, human.MiB)
		assert.Equal(t, report.Chunk, 4*human.KiB)
	},

	"chunks larger than the fifo are written in parts": func(t *testing.T) {
		report := runBench(t, "--capacity", "1000", "--chunk", "3000", "--size", "100KiB")
		assert.Equal(t, report.Capacity, human.Bytes(1000))
		assert.Equal(t, report.Transfer, 100*human.KiB)
	},

	"the zero copy mode transfers the same amount of data": func(t *testing.T) {
		report := runBench(t, "--zero-copy", "--capacity", "4KiB", "--chunk", "1500", "--size", "1MiB")
		assert.Equal(t, report.Transfer, human.MiB)
	},

	"the rate limits the throughput of the producer": func(t *testing.T) {
		report := runBench(t, "--rate", "1MiB", "--chunk", "16KiB", "--size", "128KiB")
		assert.Less(t, report.Throughput, 2*human.MiB)
	},

	"a zero chunk size causes an error": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "bench", "--chunk", "0")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stderr, "shmfifo bench: chunk size must be positive\n")
	},
}
