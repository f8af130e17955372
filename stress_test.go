package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stealthrocket/shmfifo/internal/assert"
	"github.com/stealthrocket/shmfifo/internal/print/human"
)

var stressTests = tests{
	"show the stress command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "stress", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo stress ")
		assert.Equal(t, stderr, "")
	},

	"a reordered stream is received intact": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "stress", "-o", "json",
			"--size", "256KiB", "--segment", "700", "--window", "12", "--seed", "42")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		var report stressReport
		assert.OK(t, json.Unmarshal([]byte(stdout), &report))
		assert.True(t, report.Verified)
		assert.Equal(t, report.Stream, 256*human.KiB)
		assert.Equal(t, report.Capacity, 16*human.KiB)
		assert.LessOrEqual(t, (256*1024+699)/700, report.Segments)
	},

	"a stream larger than the window of the fifo waits for the reader": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "stress", "-o", "json",
			"--capacity", "1KiB", "--size", "64KiB", "--segment", "256", "--window", "32", "--duplicate", "50")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		var report stressReport
		assert.OK(t, json.Unmarshal([]byte(stdout), &report))
		assert.True(t, report.Verified)
		assert.Equal(t, report.Capacity, human.KiB)
	},

	"the verbose option logs the session lifecycle": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "stress", "-v", "--size", "4KiB")
		assert.Equal(t, exitCode, 0)
		assert.True(t, strings.Contains(stderr, ": opened at "))
		assert.True(t, strings.Contains(stderr, ": closed"))
	},

	"the table output has a single row": func(t *testing.T) {
		stdout, _, exitCode := execute(t, "stress", "--size", "4KiB")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "SESSION ")
		assert.Equal(t, strings.Count(stdout, "\n"), 2)
	},

	"a capacity larger than the segment causes an error": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "stress", "--capacity", "2MiB")
		assert.Equal(t, exitCode, 1)
		assert.HasPrefix(t, stderr, "ERR: shmfifo stress: invalid segment.size")
	},

	"a zero segment size causes an error": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "stress", "--segment", "0")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stderr, "shmfifo stress: segment size must be positive\n")
	},
}
