package human_test

import (
	"encoding/json"
	"flag"
	"fmt"
	"testing"

	"github.com/stealthrocket/shmfifo/internal/assert"
	"github.com/stealthrocket/shmfifo/internal/print/human"
	"gopkg.in/yaml.v3"
)

func TestParseBytes(t *testing.T) {
	for in, want := range map[string]human.Bytes{
		"0":        0,
		"16":       16,
		"2B":       2,
		"4K":       4 * human.KB,
		"4KB":      4 * human.KB,
		"4 kb":     4 * human.KB,
		"2M":       2 * human.MB,
		"1G":       human.GB,
		"3T":       3 * human.TB,
		"64KiB":    64 * human.KiB,
		"64 KiB":   64 * human.KiB,
		"16MiB":    16 * human.MiB,
		"1 GiB":    human.GiB,
		"2 TiB":    2 * human.TiB,
		"1.5 Ki":   human.KiB + 512,
		"1.234 K":  1234,
		"0.5 MiB":  512 * human.KiB,
		"1.25 GiB": human.GiB + 256*human.MiB,
	} {
		t.Run(in, func(t *testing.T) {
			b, err := human.ParseBytes(in)
			assert.OK(t, err)
			assert.Equal(t, b, want)
		})
	}
}

func TestParseBytesError(t *testing.T) {
	for _, in := range []string{"", "KiB", "-1KiB", "12 parsecs", "1..5K"} {
		t.Run(in, func(t *testing.T) {
			if _, err := human.ParseBytes(in); err == nil {
				t.Errorf("%q: expected an error", in)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	for _, test := range []struct {
		format string
		value  human.Bytes
		want   string
	}{
		{"%v", 0, "0 B"},
		{"%v", 16, "16 B"},
		{"%v", 4 * human.KiB, "4 KiB"},
		{"%v", 64 * human.KiB, "64 KiB"},
		{"%v", 16 * human.MiB, "16 MiB"},
		{"%v", human.KiB + 512, "1.5 KiB"},
		{"%v", 2 * human.KB, "1.95 KiB"},
		{"%v", 1234 * human.KB, "1.18 MiB"},
		{"%v", 2 * human.TiB, "2 TiB"},
		{"%s", 123456789, "118 MiB"},
		{"%d", 123456789, "123456789"},
		{"%b", 123456789, "123 MB"},
		{"%#v", 42, "human.Bytes(42)"},
	} {
		t.Run(test.want, func(t *testing.T) {
			assert.Equal(t, fmt.Sprintf(test.format, test.value), test.want)
		})
	}
}

func TestBytesInt(t *testing.T) {
	assert.Equal(t, (64 * human.KiB).Int(), 65536)
	assert.True(t, human.Bytes(1<<64-1).Int() > 0)
}

func TestBytesEncoding(t *testing.T) {
	size := 64 * human.KiB

	j, err := json.Marshal(size)
	assert.OK(t, err)
	assert.Equal(t, string(j), "65536")

	y, err := yaml.Marshal(size)
	assert.OK(t, err)
	assert.Equal(t, string(y), "64 KiB\n")

	for _, test := range []struct {
		input     string
		unmarshal func([]byte, any) error
	}{
		{"65536", json.Unmarshal},
		{`"64KiB"`, json.Unmarshal},
		{"64 KiB", yaml.Unmarshal},
		{"65536", yaml.Unmarshal},
	} {
		var b human.Bytes
		assert.OK(t, test.unmarshal([]byte(test.input), &b))
		assert.Equal(t, b, size)
	}
}

func TestBytesFlag(t *testing.T) {
	var size human.Bytes
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Var(&size, "size", "")
	assert.OK(t, f.Parse([]string{"-size", "16MiB"}))
	assert.Equal(t, size, 16*human.MiB)
}
