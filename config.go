package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/stealthrocket/shmfifo/internal/print/jsonprint"
	"github.com/stealthrocket/shmfifo/internal/print/yamlprint"
	"github.com/stealthrocket/shmfifo/internal/shmfifo"
	"github.com/stealthrocket/shmfifo/internal/stream"
)

const configUsage = `
Usage:	shmfifo config [options]

   Shows the configuration of shared memory segments and sessions. Sizes are
   written in bytes with optional units, for example 64KiB or 16MiB.

   segment:
     path: null              # file backing the segment, null for anonymous memory
     size: 16 MiB
   session:
     rx-fifo-size: 64 KiB
     tx-fifo-size: 64 KiB
     prealloc-segments: 4    # out-of-order segment slots reserved per fifo

Options:
   -c, --config path    Path to the shmfifo configuration file (overrides SHMFIFOCONFIG)
       --edit           Open $EDITOR to edit the configuration
   -h, --help           Show usage information
   -o, --output format  Output format, one of: text, json, yaml
`

func config(ctx context.Context, args []string) error {
	var (
		edit   bool
		output = outputFormat("text")
	)

	flagSet := newFlagSet("shmfifo config", configUsage)
	boolVar(flagSet, &edit, "edit")
	customVar(flagSet, &output, "o", "output")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return usageError("shmfifo config: unexpected arguments: %q", args)
	}

	if edit {
		if err := editConfig(); err != nil {
			return err
		}
	}

	c, err := shmfifo.LoadConfig()
	if err != nil {
		return err
	}

	var w stream.WriteCloser[*shmfifo.Config]
	switch output {
	case "json":
		w = jsonprint.NewWriter[*shmfifo.Config](stdout)
	case "yaml":
		w = yamlprint.NewWriter[*shmfifo.Config](stdout)
	default:
		r, _, err := shmfifo.OpenConfig()
		if err != nil {
			return err
		}
		defer r.Close()
		_, err = io.Copy(stdout, r)
		return err
	}

	if _, err := w.Write([]*shmfifo.Config{c}); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func editConfig() error {
	r, path, err := shmfifo.OpenConfig()
	if err != nil {
		return err
	}
	defer r.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		return errors.New(`$EDITOR is not set`)
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return err
		}
	}

	tmp, err := createTempFile(path, r)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	p, err := os.StartProcess(shell, []string{shell, "-c", editor + " " + tmp}, &os.ProcAttr{
		Files: []*os.File{
			0: os.Stdin,
			1: os.Stdout,
			2: os.Stderr,
		},
	})
	if err != nil {
		return err
	}
	if _, err := p.Wait(); err != nil {
		return err
	}

	f, err := os.Open(tmp)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := shmfifo.ReadConfig(f); err != nil {
		return fmt.Errorf("not applying configuration updates because the file is invalid: %w", err)
	}
	return os.Rename(tmp, path)
}

func createTempFile(path string, r io.Reader) (string, error) {
	dir, file := filepath.Split(path)
	w, err := os.CreateTemp(dir, "."+file+".*")
	if err != nil {
		return "", err
	}
	defer w.Close()
	_, err = io.Copy(w, r)
	return w.Name(), err
}
