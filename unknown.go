package main

import (
	"context"
)

const unknownCommand = `shmfifo %s: unknown command
For a list of commands available, run 'shmfifo help'.`

func unknown(ctx context.Context, cmd string) error {
	return usageError(unknownCommand, cmd)
}
