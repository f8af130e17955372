package main

import (
	"testing"

	"github.com/stealthrocket/shmfifo/internal/assert"
)

var helpTests = tests{
	"calling help with an unknown command causes an error": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "help", "whatever")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stdout, "")
		assert.Equal(t, stderr, "shmfifo help whatever: unknown command\n")
	},

	"passing an unsupported flag to the command causes an error": func(t *testing.T) {
		_, _, exitCode := execute(t, "help", "-_")
		assert.Equal(t, exitCode, 2)
	},

	"show the help command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "help", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo <command> ")
		assert.Equal(t, stderr, "")
	},

	"show the help command help with the long option": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "help", "--help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo <command> ")
		assert.Equal(t, stderr, "")
	},

	"show the help command help after a command name": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "help", "trace", "--help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo <command> ")
		assert.Equal(t, stderr, "")
	},

	"shmfifo help bench": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "help", "bench")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo bench ")
		assert.Equal(t, stderr, "")
	},

	"shmfifo help config": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "help", "config")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo config ")
		assert.Equal(t, stderr, "")
	},

	"shmfifo help help": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "help", "help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo <command> ")
		assert.Equal(t, stderr, "")
	},

	"shmfifo help stress": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "help", "stress")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo stress ")
		assert.Equal(t, stderr, "")
	},

	"shmfifo help trace": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "help", "trace")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo trace ")
		assert.Equal(t, stderr, "")
	},

	"shmfifo help version": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "help", "version")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo version\n")
		assert.Equal(t, stderr, "")
	},
}
