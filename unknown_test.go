package main

import (
	"testing"

	"github.com/stealthrocket/shmfifo/internal/assert"
)

var unknownTests = tests{
	"an unknown command causes a usage error": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "whatever")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stdout, "")
		assert.Equal(t, stderr, "shmfifo whatever: unknown command\nFor a list of commands available, run 'shmfifo help'.\n")
	},
}
