// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/iometer/lib/statusserver"
	"github.com/bureau-foundation/iometer/lib/telemetry"
)

func statusCommand(ctx context.Context, stdout io.Writer) *Command {
	var watch bool
	return &Command{
		Name:    "status",
		Summary: "Print the latest summaries from a running copy's status server",
		Usage:   "bureau-iometer status [--watch] ADDR [STREAM...]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			flagSet.BoolVarP(&watch, "watch", "w", false, "keep printing new summaries of a single STREAM until interrupted")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return errors.New("status needs the ADDR of a status server")
			}
			client := statusserver.NewClient(baseURL(args[0]), nil)
			streams := args[1:]
			if watch {
				if len(streams) != 1 {
					return fmt.Errorf("--watch takes exactly one STREAM, got %d", len(streams))
				}
				return client.Watch(ctx, streams[0], func(summary telemetry.Summary) error {
					_, err := fmt.Fprintln(stdout, summary.String())
					return err
				})
			}
			return printStatus(ctx, client, streams, stdout)
		},
	}
}

// printStatus prints the latest summary of each stream, or of every
// stream on the server when none are named. Streams without a summary
// yet are reported as waiting.
func printStatus(ctx context.Context, client *statusserver.Client, streams []string, stdout io.Writer) error {
	if len(streams) == 0 {
		var err error
		if streams, err = client.Streams(ctx); err != nil {
			return err
		}
	}
	for _, stream := range streams {
		summary, err := client.Summary(ctx, stream)
		if errors.Is(err, statusserver.ErrNotFound) {
			fmt.Fprintf(stdout, "%s: no summary yet\n", stream)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, summary.String())
	}
	return nil
}

// baseURL accepts a bare host:port as well as a URL.
func baseURL(address string) string {
	if strings.Contains(address, "://") {
		return address
	}
	return "http://" + address
}
