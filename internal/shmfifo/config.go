// Package shmfifo holds the configuration of the shmfifo program and builds
// the shared memory resources it describes.
package shmfifo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/stealthrocket/shmfifo/internal/fifo"
	"github.com/stealthrocket/shmfifo/internal/print/human"
	"github.com/stealthrocket/shmfifo/internal/session"
	"github.com/stealthrocket/shmfifo/internal/shm"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigEnv is the environment variable overriding the default location of
	// the configuration file.
	ConfigEnv = "SHMFIFOCONFIG"

	defaultConfigPath       = "~/.shmfifo/config.yaml"
	defaultSegmentSize      = 16 * human.MiB
	defaultFifoSize         = 64 * human.KiB
	defaultPreallocSegments = 4
)

// ConfigPath is the path to the shmfifo configuration.
var ConfigPath human.Path = defaultConfigPath

// ResetConfigPath sets ConfigPath from the environment, or to its default
// value if the environment does not define it.
func ResetConfigPath() {
	if path, ok := os.LookupEnv(ConfigEnv); ok && path != "" {
		ConfigPath = human.Path(path)
	} else {
		ConfigPath = defaultConfigPath
	}
}

// LoadConfig opens and reads the configuration file.
func LoadConfig() (*Config, error) {
	r, _, err := OpenConfig()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadConfig(r)
}

// OpenConfig opens the configuration file. If the file does not exist, the
// returned reader produces the default configuration.
func OpenConfig() (io.ReadCloser, string, error) {
	path, err := ConfigPath.Resolve()
	if err != nil {
		return nil, path, err
	}
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, path, err
		}
		b, _ := yaml.Marshal(DefaultConfig())
		return io.NopCloser(bytes.NewReader(b)), path, nil
	}
	return f, path, nil
}

// ReadConfig reads and validates configuration. Fields missing from r keep
// their default values.
func ReadConfig(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// DefaultConfig is the default configuration.
func DefaultConfig() *Config {
	c := new(Config)
	c.Segment.Path = Null[human.Path]()
	c.Segment.Size = defaultSegmentSize
	c.Session.RxFifoSize = defaultFifoSize
	c.Session.TxFifoSize = defaultFifoSize
	c.Session.PreallocSegments = defaultPreallocSegments
	return c
}

// Config is the shmfifo configuration.
type Config struct {
	Segment struct {
		// File backing the shared memory segment; null maps anonymous memory.
		Path Nullable[human.Path] `json:"path" yaml:"path"`
		Size human.Bytes          `json:"size" yaml:"size"`
	} `json:"segment" yaml:"segment"`
	Session struct {
		RxFifoSize       human.Bytes `json:"rx-fifo-size"      yaml:"rx-fifo-size"`
		TxFifoSize       human.Bytes `json:"tx-fifo-size"      yaml:"tx-fifo-size"`
		PreallocSegments int         `json:"prealloc-segments" yaml:"prealloc-segments"`
	} `json:"session" yaml:"session"`
}

// Validate checks that the sizes in c can be honored.
func (c *Config) Validate() error {
	for _, size := range []struct {
		name  string
		value human.Bytes
	}{
		{"session.rx-fifo-size", c.Session.RxFifoSize},
		{"session.tx-fifo-size", c.Session.TxFifoSize},
	} {
		if size.value == 0 || size.value > fifo.MaxCapacity {
			return fmt.Errorf("invalid %s: %s (must be between 1 B and %s)", size.name, size.value, human.Bytes(fifo.MaxCapacity))
		}
	}
	if c.Segment.Size < c.Session.RxFifoSize+c.Session.TxFifoSize {
		return fmt.Errorf("invalid segment.size: %s is too small to hold one session", c.Segment.Size)
	}
	if c.Session.PreallocSegments < 0 {
		return fmt.Errorf("invalid session.prealloc-segments: %d", c.Session.PreallocSegments)
	}
	return nil
}

// OpenSegment maps the shared memory segment described by c.
func (c *Config) OpenSegment() (*shm.Segment, error) {
	location, ok := c.Segment.Path.Value()
	if !ok {
		return shm.Anonymous(c.Segment.Size.Int())
	}
	path, err := location.Resolve()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
	}
	return shm.Create(path, c.Segment.Size.Int())
}

// NewManager returns a session manager allocating sessions of the sizes set
// in c from seg.
func (c *Config) NewManager(seg *shm.Segment, logger *log.Logger) *session.Manager {
	return session.NewManager(seg, session.Config{
		RxFifoSize:       c.Session.RxFifoSize.Int(),
		TxFifoSize:       c.Session.TxFifoSize.Int(),
		PreallocSegments: c.Session.PreallocSegments,
		Logger:           logger,
	})
}
