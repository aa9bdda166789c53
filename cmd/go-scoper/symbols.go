// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petar-djukic/go-scoper/pkg/scoper"
)

// newSymbolsCmd creates the "symbols" command.
func newSymbolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List discovered symbols and their replacements",
		Long:  "Symbols scans the configured packages and prints every symbol with the name it would be given. Nothing is written.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			changedOnly, _ := cmd.Flags().GetBool("changed")

			s, err := scoper.New(scoperConfig())
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			syms, err := s.Symbols(context.Background())
			if err != nil {
				return err
			}
			if changedOnly {
				syms = renamedOnly(syms)
			}
			return writeSymbols(cmd.OutOrStdout(), syms, format)
		},
	}

	cmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
	cmd.Flags().Bool("changed", false, "Only list renamed symbols")

	return cmd
}

func renamedOnly(syms []scoper.Symbol) []scoper.Symbol {
	out := syms[:0]
	for _, s := range syms {
		if s.Replacement != "" {
			out = append(out, s)
		}
	}
	return out
}

// writeSymbols encodes syms to w in the given format.
func writeSymbols(w io.Writer, syms []scoper.Symbol, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(syms)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(syms); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
