package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/japaniel/pime/pkg/cedict"
	"github.com/japaniel/pime/pkg/config"
	"github.com/japaniel/pime/pkg/logging"
)

var errUsage = errors.New("usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "cedict: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("cedict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: cedict [flags] input-file output-file")
		fs.PrintDefaults()
	}
	workers := fs.Int("workers", cfg.Workers, "Number of conversion workers")
	skip := fs.Bool("skip-invalid", false, "Log and skip malformed lines instead of failing")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}

	logger, err := logging.NewLogger(*logLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	in, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	conv := cedict.Converter{Workers: *workers, SkipInvalid: *skip, Logger: logger}
	stats, err := conv.Convert(ctx, in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output: %w", cerr)
	}
	if err != nil {
		logger.Error("conversion failed", zap.String("input", fs.Arg(0)), zap.Error(err))
		return err
	}

	fmt.Fprintf(stdout, "converted %d entries (%d skipped) from %d lines\n", stats.Converted, stats.Skipped, stats.Lines)
	return nil
}
