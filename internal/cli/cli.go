// Package cli implements the pipenv command-line interface.
//
// This package provides commands for linting and formatting Pipfile
// manifests, running [scripts] aliases, exporting to requirements.txt and
// conda formats, checking lockfile freshness, and querying package
// indexes. The CLI is built using cobra and supports verbose logging via
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - lint: Validate a Pipfile and report diagnostics
//   - fmt: Rewrite a Pipfile in canonical form
//   - run / scripts: Execute or list [scripts] aliases
//   - export / import: Translate to and from requirements.txt and conda
//   - hash / verify: Manifest hashing and lockfile freshness
//   - outdated: Compare pinned versions against the index
//   - serve: Run the HTTP API
//   - cache: Manage the index response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/umarmnaq/pipenv/pkg/buildinfo"
	"github.com/umarmnaq/pipenv/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "pipenv"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Pipenv manages Pipfile dependency manifests",
		Long:         `Pipenv is a CLI tool for working with Pipfile manifests: validating and formatting them, running their script aliases, translating them to other dependency formats, and keeping Pipfile.lock honest.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Make the logger reachable from every command's context.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	root.AddCommand(c.lintCommand())
	root.AddCommand(c.fmtCommand())
	root.AddCommand(c.scriptsCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.hashCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.outdatedCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache returns a response cache backend, falling back to no caching
// when the cache directory is unavailable.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// cacheDir returns the cache directory, ~/.cache/pipenv under XDG rules.
func cacheDir() (string, error) {
	return cache.DefaultDir()
}
