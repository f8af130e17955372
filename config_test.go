package main

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stealthrocket/shmfifo/internal/assert"
	"github.com/stealthrocket/shmfifo/internal/print/human"
	"github.com/stealthrocket/shmfifo/internal/shmfifo"
	"gopkg.in/yaml.v3"
)

var configTests = tests{
	"show the config command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "config", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\tshmfifo config ")
		assert.Equal(t, stderr, "")
	},

	"the text output is the content of the configuration file": func(t *testing.T) {
		b, err := os.ReadFile(os.Getenv(shmfifo.ConfigEnv))
		assert.OK(t, err)

		stdout, stderr, exitCode := execute(t, "config")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, string(b))
		assert.Equal(t, stderr, "")
	},

	"the json output has sizes in bytes": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "config", "-o", "json")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		var c struct {
			Session struct {
				RxFifoSize int `json:"rx-fifo-size"`
			} `json:"session"`
		}
		assert.OK(t, json.Unmarshal([]byte(stdout), &c))
		assert.Equal(t, c.Session.RxFifoSize, 16*1024)
	},

	"the yaml output can be read back": func(t *testing.T) {
		stdout, stderr, exitCode := execute(t, "config", "-o", "yaml")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")

		c, err := shmfifo.ReadConfig(strings.NewReader(stdout))
		assert.OK(t, err)
		assert.Equal(t, c.Segment.Size, human.MiB)
		assert.Equal(t, c.Session.TxFifoSize, 16*human.KiB)
	},

	"an invalid configuration file causes an error": func(t *testing.T) {
		b, err := yaml.Marshal(map[string]any{
			"session": map[string]any{"rx-fifo-size": "0 B"},
		})
		assert.OK(t, err)
		assert.OK(t, os.WriteFile(os.Getenv(shmfifo.ConfigEnv), b, 0666))

		stdout, stderr, exitCode := execute(t, "config", "-o", "json")
		assert.Equal(t, exitCode, 1)
		assert.Equal(t, stdout, "")
		assert.HasPrefix(t, stderr, "ERR: shmfifo config: invalid session.rx-fifo-size")
	},

	"passing an unsupported output format causes an error": func(t *testing.T) {
		_, stderr, exitCode := execute(t, "config", "-o", "xml")
		assert.Equal(t, exitCode, 2)
		assert.HasPrefix(t, stderr, "shmfifo config: invalid value \"xml\" for flag -o")
	},
}
