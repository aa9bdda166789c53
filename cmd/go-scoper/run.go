// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	gitpkg "github.com/petar-djukic/go-scoper/internal/git"
	"github.com/petar-djukic/go-scoper/pkg/scoper"
)

// newRunCmd creates the "run" command.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Copy and prefix dependencies",
		Long: "Run copies the configured packages into the target directory, prefixes their " +
			"symbols, generates autoload aliases and repairs Composer's metadata.",
		Args: cobra.NoArgs,
		RunE: runScoper,
	}
}

// runScoper executes the pipeline and prints the result as JSON.
func runScoper(cmd *cobra.Command, args []string) error {
	s, err := scoper.New(scoperConfig())
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	result, err := s.Run(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		if result != nil {
			printResult(cmd.OutOrStdout(), result)
		}
		return err
	}

	printResult(cmd.OutOrStdout(), result)
	return nil
}

// printResult outputs the result as JSON.
func printResult(w io.Writer, result *scoper.Result) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling result: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(out))
}

// newUndoCmd creates the "undo" command.
func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last go-scoper commit",
		Long:  "Undo performs a soft reset of the last commit if it was made by go-scoper --commit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := gitpkg.Open(gitpkg.Config{WorkDir: viper.GetString("project-dir")})
			if err != nil {
				return fmt.Errorf("opening repository: %w", err)
			}

			if err := repo.Undo(); err != nil {
				return fmt.Errorf("undo failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Successfully reverted last go-scoper commit.")
			return nil
		},
	}
}
