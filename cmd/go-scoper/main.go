// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command go-scoper prefixes the Composer dependencies of a PHP project.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/petar-djukic/go-scoper/internal/logging"
	"github.com/petar-djukic/go-scoper/pkg/scoper"
)

const version = "0.1.0"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "go-scoper",
		Short: "Prefix the Composer dependencies of a PHP project",
		Long: "go-scoper copies the packages a PHP project depends on into a separate directory " +
			"and renames every namespace, class, function and constant they declare, so two " +
			"plugins bundling different versions of a library can load side by side.",
		SilenceUsage: true,
	}

	// Global flags.
	flags := rootCmd.PersistentFlags()
	flags.String("project-dir", ".", "Directory holding composer.json")
	flags.String("target-directory", "", "Directory for prefixed copies (default vendor-prefixed)")
	flags.String("vendor-directory", "", "Composer vendor directory (default vendor)")
	flags.String("namespace-prefix", "", `Namespace prefix, e.g. "Acme\Plugin\Vendor"`)
	flags.String("classmap-prefix", "", `Prefix for global classes, e.g. "Acme_Plugin_"`)
	flags.String("functions-prefix", "", "Prefix for global functions")
	flags.String("constants-prefix", "", "Prefix for global constants")
	flags.StringSlice("packages", nil, "Root packages to process (default: composer.json require)")
	flags.Bool("delete-vendor-files", false, "Delete copied files from vendor")
	flags.Bool("delete-vendor-packages", false, "Delete fully copied packages from vendor")
	flags.Bool("no-aliases", false, "Do not generate autoload_aliases.php")
	flags.Bool("dry-run", false, "Report changes without writing")
	flags.Bool("require-clean", false, "Refuse to run when the git worktree has changes")
	flags.Bool("commit", false, "Commit the result")
	flags.Bool("no-git", false, "Disable git operations")
	flags.Bool("lint", false, "Run php -l over the generated aliases")
	flags.String("php", "php", "PHP binary used by --lint")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.BoolP("silent", "s", false, "Only log errors")

	// Bind flags to viper.
	flags.VisitAll(func(f *pflag.Flag) {
		viper.BindPFlag(f.Name, f)
	})

	// Env vars: GO_SCOPER_DRY_RUN, GO_SCOPER_PROJECT_DIR, etc.
	viper.SetEnvPrefix("GO_SCOPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".go-scoper")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	// Add commands.
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSymbolsCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Bare "go-scoper" runs the pipeline.
	rootCmd.RunE = runScoper

	return rootCmd
}

// newLogger builds the process logger from --verbose and --silent.
func newLogger() *log.Logger {
	return logging.New(os.Stderr, viper.GetBool("verbose"), viper.GetBool("silent"))
}

// scoperConfig maps flags, env vars and the optional config file to the
// library config.
func scoperConfig() scoper.Config {
	return scoper.Config{
		ProjectDir:           viper.GetString("project-dir"),
		TargetDirectory:      viper.GetString("target-directory"),
		VendorDirectory:      viper.GetString("vendor-directory"),
		NamespacePrefix:      viper.GetString("namespace-prefix"),
		ClassmapPrefix:       viper.GetString("classmap-prefix"),
		FunctionsPrefix:      viper.GetString("functions-prefix"),
		ConstantsPrefix:      viper.GetString("constants-prefix"),
		Packages:             viper.GetStringSlice("packages"),
		DeleteVendorFiles:    viper.GetBool("delete-vendor-files"),
		DeleteVendorPackages: viper.GetBool("delete-vendor-packages"),
		NoAliases:            viper.GetBool("no-aliases"),
		DryRun:               viper.GetBool("dry-run"),
		RequireClean:         viper.GetBool("require-clean"),
		Commit:               viper.GetBool("commit"),
		NoGit:                viper.GetBool("no-git"),
		Lint:                 viper.GetBool("lint"),
		PHPBinary:            viper.GetString("php"),
		Logger:               newLogger(),
	}
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print go-scoper version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "go-scoper %s\n", version)
		},
	}
}
