// Package cli implements the reversal command-line interface.
//
// This package provides commands for generating Simpson reversal trees,
// denormalizing them into integer population reports, rendering figures
// and diagrams, and serving the pipeline over HTTP. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - generate: Build a reversal tree and save it as JSON
//   - report: Print the integer population census of a tree
//   - render: Generate SVG figures, DOT diagrams, or other artifacts
//   - explore: Browse a tree's layers interactively
//   - serve: Run the HTTP API server
//   - cache: Manage the local pipeline cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/paradoxlab/reversal/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/paradoxlab/reversal/pkg/buildinfo"
	"github.com/paradoxlab/reversal/pkg/cache"
	"github.com/paradoxlab/reversal/pkg/pipeline"
	"github.com/paradoxlab/reversal/pkg/scenario"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "reversal"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

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
		Use:          "reversal",
		Short:        "Reversal generates Simpson's paradox reversal trees",
		Long:         `Reversal is a CLI tool for constructing nested populations in which a treatment's advantage flips sign at every level of conditioning, and for denormalizing them into the smallest integer populations that realize the paradox exactly.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/reversal/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// loadScenarioOptions resolves a scenario file (or the built-in default)
// into pipeline options. Flag values that were explicitly set by the user
// are applied by the individual commands after this call.
func loadScenarioOptions(path string) (pipeline.Options, error) {
	var s *scenario.Scenario
	if path == "" {
		s = scenario.Default()
	} else {
		loaded, err := scenario.Load(path)
		if err != nil {
			return pipeline.Options{}, err
		}
		s = loaded
	}

	root, err := s.RootLayer()
	if err != nil {
		return pipeline.Options{}, err
	}
	constants, err := s.SplitConstants()
	if err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		Root:           &root,
		Depth:          s.Depth,
		Constants:      &constants,
		MaxDenominator: s.Census.MaxDenominator,
		Strict:         s.Census.Strict,
	}, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
