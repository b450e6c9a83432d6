// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/iometer/lib/codec"
	"github.com/bureau-foundation/iometer/lib/reportsink"
)

// decodeFormat selects how decode prints each record.
type decodeFormat int

const (
	// formatSummary prints Summary.String lines.
	formatSummary decodeFormat = iota
	// formatRaw prints CBOR diagnostic notation, one item per line.
	formatRaw
	// formatJSON prints each record as a JSON object with every field
	// the file carries, including ones this build does not know.
	formatJSON
)

func decodeCommand(stdout io.Writer) *Command {
	var raw, asJSON bool
	return &Command{
		Name:    "decode",
		Summary: "Print a CBOR summary file, one line per summary",
		Usage:   "bureau-iometer decode [--raw | --json] FILE",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.BoolVar(&raw, "raw", false, "print CBOR diagnostic notation instead of summary lines")
			flagSet.BoolVar(&asJSON, "json", false, "print each record as a JSON object")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("decode takes exactly one FILE argument, got %d", len(args))
			}
			format := formatSummary
			switch {
			case raw && asJSON:
				return errors.New("--raw and --json are mutually exclusive")
			case raw:
				format = formatRaw
			case asJSON:
				format = formatJSON
			}
			return decodeFile(args[0], format, stdout)
		},
	}
}

// decodeFile prints every record in path. Records decoded before an
// error are still printed.
func decodeFile(path string, format decodeFormat, stdout io.Writer) error {
	var err error
	switch format {
	case formatRaw:
		err = printDiagnostics(path, stdout)
	case formatJSON:
		err = printJSON(path, stdout)
	default:
		err = printSummaries(path, stdout)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, err)
	}
	return err
}

func printSummaries(path string, stdout io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	summaries, err := reportsink.ReadCBOR(file)
	for _, summary := range summaries {
		fmt.Fprintln(stdout, summary.String())
	}
	return err
}

func printDiagnostics(path string, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for record := 1; len(data) > 0; record++ {
		notation, rest, err := codec.DiagnoseFirst(data)
		if err != nil {
			return fmt.Errorf("diagnosing record %d: %w", record, err)
		}
		fmt.Fprintln(stdout, notation)
		data = rest
	}
	return nil
}

func printJSON(path string, stdout io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := codec.NewDecoder(file)
	encoder := json.NewEncoder(stdout)
	for record := 1; ; record++ {
		var value any
		err := decoder.Decode(&value)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decoding record %d: %w", record, err)
		}
		if err := encoder.Encode(value); err != nil {
			return fmt.Errorf("encoding record %d as JSON: %w", record, err)
		}
	}
}
