package shmfifo_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stealthrocket/shmfifo/internal/assert"
	"github.com/stealthrocket/shmfifo/internal/print/human"
	"github.com/stealthrocket/shmfifo/internal/shmfifo"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfigRoundTrip(t *testing.T) {
	b, err := yaml.Marshal(shmfifo.DefaultConfig())
	assert.OK(t, err)
	assert.Equal(t, string(b), `segment:
  path: null
  size: 16 MiB
session:
  rx-fifo-size: 64 KiB
  tx-fifo-size: 64 KiB
  prealloc-segments: 4
`)

	c, err := shmfifo.ReadConfig(bytes.NewReader(b))
	assert.OK(t, err)
	assert.Equal(t, marshal(t, c), string(b))
}

func marshal(t *testing.T, c *shmfifo.Config) string {
	t.Helper()
	b, err := yaml.Marshal(c)
	assert.OK(t, err)
	return string(b)
}

func TestReadConfig(t *testing.T) {
	c, err := shmfifo.ReadConfig(strings.NewReader(`
segment:
  path: ~/.shmfifo/segment
  size: 1MiB
session:
  rx-fifo-size: 4KiB
`))
	assert.OK(t, err)

	path, ok := c.Segment.Path.Value()
	assert.True(t, ok)
	assert.Equal(t, path, human.Path("~/.shmfifo/segment"))
	assert.Equal(t, c.Segment.Size, human.MiB)
	assert.Equal(t, c.Session.RxFifoSize, 4*human.KiB)
	assert.Equal(t, c.Session.TxFifoSize, 64*human.KiB)

	b, err := json.Marshal(c)
	assert.OK(t, err)
	assert.Equal(t, string(b), `{"segment":{"path":"~/.shmfifo/segment","size":1048576},"session":{"rx-fifo-size":4096,"tx-fifo-size":65536,"prealloc-segments":4}}`)
}

func TestReadConfigEmpty(t *testing.T) {
	c, err := shmfifo.ReadConfig(strings.NewReader(""))
	assert.OK(t, err)
	assert.Equal(t, marshal(t, c), marshal(t, shmfifo.DefaultConfig()))
}

func TestReadConfigErrors(t *testing.T) {
	for name, config := range map[string]string{
		"unknown field":     "segment:\n  name: hello\n",
		"malformed size":    "segment:\n  size: lots\n",
		"empty fifo":        "session:\n  rx-fifo-size: 0\n",
		"fifo too large":    "session:\n  tx-fifo-size: 2GiB\n",
		"segment too small": "segment:\n  size: 64KiB\n",
		"negative prealloc": "session:\n  prealloc-segments: -1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := shmfifo.ReadConfig(strings.NewReader(config))
			if err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestConfigPathFromEnvironment(t *testing.T) {
	t.Cleanup(shmfifo.ResetConfigPath)

	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.OK(t, os.WriteFile(path, []byte("session:\n  prealloc-segments: 9\n"), 0666))
	t.Setenv(shmfifo.ConfigEnv, path)
	shmfifo.ResetConfigPath()

	c, err := shmfifo.LoadConfig()
	assert.OK(t, err)
	assert.Equal(t, c.Session.PreallocSegments, 9)
}

func TestOpenSegment(t *testing.T) {
	c := shmfifo.DefaultConfig()
	c.Segment.Size = 256 * human.KiB
	c.Segment.Path = shmfifo.NullableValue(human.Path(filepath.Join(t.TempDir(), "shm", "segment")))

	seg, err := c.OpenSegment()
	assert.OK(t, err)
	defer seg.Close()
	assert.Equal(t, seg.Size(), 256*1024)
	assert.True(t, strings.HasSuffix(seg.Name(), "segment"))

	m := c.NewManager(seg, nil)
	s, err := m.Open()
	assert.OK(t, err)
	assert.Equal(t, s.Rx().Capacity(), 64*1024)
	assert.OK(t, m.Shutdown())
}
