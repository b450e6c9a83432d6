// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/iometer/lib/clock"
	"github.com/bureau-foundation/iometer/lib/config"
	"github.com/bureau-foundation/iometer/lib/meteredio"
	"github.com/bureau-foundation/iometer/lib/reportsink"
	"github.com/bureau-foundation/iometer/lib/statusserver"
	"github.com/bureau-foundation/iometer/lib/telemetry"
	"github.com/bureau-foundation/iometer/lib/transfer"
)

// Stream names. Every source read goes to readStream and every
// destination write to writeStream, whichever file it belongs to.
const (
	readStream  = "read"
	writeStream = "write"
)

type copyOptions struct {
	configPath string
	jobs       int
	compress   string
	linger     time.Duration
	listen     string
	verbose    bool
}

func copyCommand(ctx context.Context, stdout, stderr io.Writer) *Command {
	var options copyOptions
	return &Command{
		Name:    "copy",
		Summary: "Copy files into a directory and report read and write throughput",
		Usage:   "bureau-iometer copy [flags] SRC... DSTDIR",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("copy", pflag.ContinueOnError)
			flagSet.StringVar(&options.configPath, "config", "", "config file (default: $"+config.EnvironmentVariable+", then built-in defaults)")
			flagSet.IntVarP(&options.jobs, "jobs", "j", 4, "number of files copied concurrently")
			flagSet.StringVar(&options.compress, "compress", "none", "compress destinations: none, lz4, or zstd")
			flagSet.DurationVar(&options.linger, "linger", 0, "keep reporting for this long after the last copy finishes")
			flagSet.StringVar(&options.listen, "listen", "", "serve the status API on this address (overrides status.listen_addr)")
			flagSet.BoolVarP(&options.verbose, "verbose", "v", false, "log at debug level")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("copy needs at least one SRC and a DSTDIR, got %d arguments", len(args))
			}
			logger := newLogger(stderr, options.verbose)
			return runCopy(ctx, options, args[:len(args)-1], args[len(args)-1], stdout, logger)
		},
	}
}

// loadConfig resolves the config file from the flag, then the
// environment, then the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvironmentVariable) != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// sinkSet holds the sinks built from the config and closes those that
// own a resource.
type sinkSet struct {
	sinks   []telemetry.Sink
	closers []io.Closer
	hub     *statusserver.Hub
}

func openSinks(cfg *config.Config, logger *slog.Logger) (*sinkSet, error) {
	set := &sinkSet{}
	if cfg.Sinks.CBORPath != "" {
		sink, err := reportsink.OpenCBORFile(cfg.Sinks.CBORPath)
		if err != nil {
			return nil, err
		}
		set.sinks = append(set.sinks, sink)
		set.closers = append(set.closers, sink)
	}
	if cfg.Sinks.NATSURL != "" {
		sink, err := reportsink.DialNATS(cfg.Sinks.NATSURL, cfg.Sinks.NATSSubject, logger)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.sinks = append(set.sinks, sink)
		set.closers = append(set.closers, sink)
	}
	if cfg.Status.ListenAddr != "" {
		set.hub = statusserver.NewHub()
		set.sinks = append(set.sinks, set.hub)
	}
	return set, nil
}

func (s *sinkSet) Close() error {
	var errs []error
	for _, closer := range s.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

func runCopy(ctx context.Context, options copyOptions, sources []string, destinationDir string, stdout io.Writer, logger *slog.Logger) error {
	if options.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", options.jobs)
	}
	if options.linger < 0 {
		return fmt.Errorf("--linger must not be negative, got %s", options.linger)
	}
	compression, err := transfer.ParseCompression(options.compress)
	if err != nil {
		return err
	}
	destinations, err := planDestinations(sources, destinationDir, compression)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(options.configPath)
	if err != nil {
		return err
	}
	if options.listen != "" {
		cfg.Status.ListenAddr = options.listen
	}

	sinks, err := openSinks(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("closing report sinks failed", "error", err)
		}
	}()

	clk := clock.Real()
	telemetryConfig, err := cfg.NewTelemetryConfig(logger, clk)
	if err != nil {
		return err
	}
	telemetryConfig.Sinks = sinks.sinks

	// Telemetry outlives the copies by the linger period; it stops on
	// return or on a signal.
	telemetryCtx, stopTelemetry := context.WithCancel(ctx)
	defer stopTelemetry()

	registry, err := telemetry.NewRegistry(telemetryCtx, telemetryConfig)
	if err != nil {
		return err
	}
	defer registry.Wait()
	defer stopTelemetry()

	reads, err := registry.Stream(readStream)
	if err != nil {
		return err
	}
	writes, err := registry.Stream(writeStream)
	if err != nil {
		return err
	}

	if cfg.Status.ListenAddr != "" {
		listener, err := net.Listen("tcp", cfg.Status.ListenAddr)
		if err != nil {
			return fmt.Errorf("status server: %w", err)
		}
		server := statusserver.New(registry, sinks.hub, logger)
		served := make(chan error, 1)
		go func() {
			served <- server.Serve(telemetryCtx, listener)
		}()
		defer func() {
			stopTelemetry()
			if err := <-served; err != nil {
				logger.Warn("status server failed", "error", err)
			}
		}()
	}

	started := clk.Now()
	var printMu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(options.jobs)
	for index, source := range sources {
		destination := destinations[index]
		group.Go(func() error {
			result, err := copyFile(groupCtx, reads, writes, source, destination, compression, logger)
			if err != nil {
				return fmt.Errorf("copying %s: %w", source, err)
			}
			printMu.Lock()
			defer printMu.Unlock()
			fmt.Fprintf(stdout, "%s -> %s  %s read, %s written  blake3:%s\n",
				source, destination,
				humanize.IBytes(uint64(result.BytesRead)),
				humanize.IBytes(uint64(result.BytesWritten)),
				result.Digest)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	logger.Info("copies finished",
		"files", len(sources),
		"elapsed", clk.Now().Sub(started),
		"linger", options.linger,
	)

	if options.linger > 0 {
		// A signal during the linger ends it early without an error.
		_ = clock.Wait(ctx, clk, options.linger)
	}
	return nil
}

// planDestinations maps each source to its path under destinationDir
// and rejects two sources that would write the same file.
func planDestinations(sources []string, destinationDir string, compression transfer.Compression) ([]string, error) {
	info, err := os.Stat(destinationDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("destination %s is not a directory", destinationDir)
	}

	destinations := make([]string, len(sources))
	claimed := make(map[string]string, len(sources))
	for index, source := range sources {
		destination := filepath.Join(destinationDir, filepath.Base(source)+compression.Extension())
		if previous, ok := claimed[destination]; ok {
			return nil, fmt.Errorf("sources %s and %s both copy to %s", previous, source, destination)
		}
		claimed[destination] = source
		destinations[index] = destination
	}
	return destinations, nil
}

// copyFile copies source to destination through metered files. A
// failed copy removes the partial destination.
func copyFile(ctx context.Context, reads, writes meteredio.Recorder, source, destination string, compression transfer.Compression, logger *slog.Logger) (result transfer.Result, err error) {
	input, err := meteredio.Open(reads, source)
	if err != nil {
		return transfer.Result{}, err
	}
	defer input.Close()

	if err := adviseSequential(input.Fd()); err != nil {
		logger.Debug("fadvise failed", "path", source, "error", err)
	}

	output, err := meteredio.Create(writes, destination)
	if err != nil {
		return transfer.Result{}, err
	}
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(destination)
		}
	}()

	return transfer.Copy(ctx, output, input, transfer.Options{Compression: compression})
}
