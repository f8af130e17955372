package main

// Notes on program structure
// --------------------------
//
// shmfifo uses subcommands to invoke specific functionalities of the program.
// Each subcommand is implemented by a function named after the command, in a
// file of the same name (e.g. the "help" command is implemented by the help
// function in help.go).
//
// The usage message for each command is declared by a constant starting with
// the command name and followed by the suffix "Usage". For example, the usage
// message for the "help" command is declared by the constant helpUsage.
//
// The usage message contains a "Usage:	shmfifo <command>" section presenting
// the structure of the command. Note the tabulation separating "Usage:" and
// "shmfifo".
//
// Commands write to the stdout and stderr variables rather than the os files
// so tests can run them in process.

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/stealthrocket/shmfifo/internal/shmfifo"
	"golang.org/x/exp/slices"
)

const rootUsage = `shmfifo - Shared Memory Byte FIFO

   shmfifo exercises single-producer single-consumer byte fifos living in
   shared memory, which reassemble data written out of order before making it
   readable.

Example:

   $ shmfifo trace --capacity 16 enq:10 ooo:2:4 deq:10 enq:2
   ...

   $ shmfifo stress --size 16MiB --window 32
   ...

For a list of commands available, run 'shmfifo help'.`

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// root is the shmfifo entrypoint.
func root(ctx context.Context, args ...string) int {
	shmfifo.ResetConfigPath()

	flagSet := newFlagSet("shmfifo", helpUsage)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitStatus("", usageError("shmfifo: %s", err))
	}

	if args = flagSet.Args(); len(args) == 0 {
		fmt.Fprintln(stdout, rootUsage)
		return 0
	}

	cmd, args := args[0], args[1:]

	var err error
	switch cmd {
	case "bench":
		err = bench(ctx, args)
	case "config":
		err = config(ctx, args)
	case "help":
		err = help(ctx, args)
	case "stress":
		err = stress(ctx, args)
	case "trace":
		err = trace(ctx, args)
	case "version":
		err = version(ctx, args)
	default:
		err = unknown(ctx, cmd)
	}
	return exitStatus(cmd, err)
}

func exitStatus(cmd string, err error) int {
	switch e := err.(type) {
	case nil:
		return 0
	case exitCode:
		return int(e)
	case usage:
		fmt.Fprintf(stderr, "%s\n", e)
		return 2
	default:
		fmt.Fprintf(stderr, "ERR: shmfifo %s: %s\n", cmd, err)
		return 1
	}
}

// exitCode is an error type returned from command functions to indicate the
// exit code that should be returned by the program.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit: %d", e)
}

// usage is an error type returned from command functions to indicate a usage
// error.
//
// Usage errors cause the program to exit with status code 2.
type usage string

func usageError(msg string, args ...any) error {
	return usage(fmt.Sprintf(msg, args...))
}

func (e usage) Error() string {
	return string(e)
}

func setEnum[T ~string](enum *T, typ string, value string, options ...string) error {
	for _, option := range options {
		if option == value {
			*enum = T(option)
			return nil
		}
	}
	return fmt.Errorf("unsupported %s: %q (not one of %s)", typ, value, strings.Join(options, ", "))
}

type outputFormat string

func (o outputFormat) String() string {
	return string(o)
}

func (o *outputFormat) Set(value string) error {
	return setEnum(o, "output format", value, "text", "json", "yaml")
}

// count is a non-negative integer flag.
type count int

func (c count) String() string {
	return strconv.Itoa(int(c))
}

func (c *count) Set(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative value: %d", n)
	}
	*c = count(n)
	return nil
}

func newFlagSet(cmd, usage string) *flag.FlagSet {
	usage = strings.TrimSpace(usage)
	flagSet := flag.NewFlagSet(cmd, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.Usage = func() { fmt.Fprintln(stdout, usage) }
	customVar(flagSet, &shmfifo.ConfigPath, "c", "config")
	return flagSet
}

// parseFlags is a greedy parser which consumes all options known to f and
// returns the remaining arguments.
//
// The -h and --help options print the usage message and return exitCode(0),
// other parsing errors are returned as usage errors.
func parseFlags(f *flag.FlagSet, args []string) ([]string, error) {
	var unknownArgs []string
	for {
		if err := f.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, exitCode(0)
			}
			return nil, usageError("%s: %s", f.Name(), err)
		}
		if args = f.Args(); len(args) == 0 {
			return unknownArgs, nil
		}
		i := slices.IndexFunc(args, func(s string) bool {
			return strings.HasPrefix(s, "-")
		})
		if i < 0 {
			i = len(args)
		} else if args[i] == "-" {
			i++
		}
		if i == 0 {
			return nil, usageError("%s: cannot parse argument %q", f.Name(), args[0])
		}
		unknownArgs = append(unknownArgs, args[:i]...)
		args = args[i:]
	}
}

func boolVar(f *flag.FlagSet, dst *bool, name string, alias ...string) {
	f.BoolVar(dst, name, *dst, "")
	for _, name := range alias {
		f.BoolVar(dst, name, *dst, "")
	}
}

func customVar(f *flag.FlagSet, dst flag.Value, name string, alias ...string) {
	f.Var(dst, name, "")
	for _, name := range alias {
		f.Var(dst, name, "")
	}
}

// loadConfig reads the configuration file selected by the -c option or the
// environment.
func loadConfig() (*shmfifo.Config, error) {
	return shmfifo.LoadConfig()
}

// setVerbose routes the log output of the program to stderr.
func setVerbose(verbose bool) {
	if verbose {
		log.SetOutput(stderr)
	} else {
		log.SetOutput(io.Discard)
	}
}
