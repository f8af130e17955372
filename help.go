package main

import (
	"context"
	"fmt"
	"strings"
)

const helpUsage = `
Usage:	shmfifo <command> [options]

FIFO Commands:
   trace    Replay a sequence of fifo operations and show the state after each
   stress   Deliver a reordered stream through a session and verify it
   bench    Measure the throughput of a producer and consumer pair

Other Commands:
   config   View or edit the shmfifo configuration
   help     Show usage information about shmfifo commands
   version  Show the shmfifo version information

Global Options:
   -c, --config  Path to the shmfifo configuration file (overrides SHMFIFOCONFIG)
   -h, --help    Show usage information

For a description of each command, run 'shmfifo help <command>'.`

func help(ctx context.Context, args []string) error {
	flagSet := newFlagSet("shmfifo help", helpUsage)
	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}

	var msg string
	var cmd string
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "bench":
		msg = benchUsage
	case "config":
		msg = configUsage
	case "help", "":
		msg = helpUsage
	case "stress":
		msg = stressUsage
	case "trace":
		msg = traceUsage
	case "version":
		msg = versionUsage
	default:
		return usageError("shmfifo help %s: unknown command", cmd)
	}

	fmt.Fprintln(stdout, strings.TrimSpace(msg))
	return nil
}
