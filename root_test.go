package main

import (
	"testing"

	"github.com/stealthrocket/shmfifo/internal/assert"
)

var rootTests = tests{
	"calling the program without a command shows the overview": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t)
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "shmfifo - Shared Memory Byte FIFO\n")
		assert.Equal(t, stderr, "")
	},

	"show the help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo <command> ")
		assert.Equal(t, stderr, "")
	},

	"passing an unsupported flag to the program causes an error": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "-_", "version")
		assert.Equal(t, exitCode, 2)
		assert.HasPrefix(t, stderr, "shmfifo: flag provided but not defined: -_")
	},

	"the configuration path is passed before the command": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "-c", "/nonexistent/config.yaml", "config", "-o", "json")
		assert.Equal(t, exitCode, 0)
		assert.True(t, len(stdout) > 0)
		assert.Equal(t, stderr, "")
	},
}
