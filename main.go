package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
)

func init() {
	// Commands opt into logging with -v.
	log.SetOutput(io.Discard)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := root(ctx, os.Args[1:]...)
	stop()
	os.Exit(code)
}
