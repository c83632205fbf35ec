package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/pattern/cli"
	"github.com/ardnew/pattern/log"
)

func main() {
	if err := cli.Run(context.Background(), os.Exit, os.Args[1:]...); err != nil {
		log.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}
