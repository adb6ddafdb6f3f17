// SPDX-License-Identifier: GPL-2.0-or-later

// Package cmd contains all CLI commands for omero-rdf.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/German-BioImaging/omero-rdf/internal/config"
	"github.com/German-BioImaging/omero-rdf/internal/issue"
	"github.com/German-BioImaging/omero-rdf/internal/omero"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// Server connection flags; zero values defer to config/environment.
	serverHost    string
	serverPort    int
	serverUser    string
	serverSession string

	// cfg is the loaded configuration, populated by initRootConfig.
	cfg *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "omero-rdf",
		Short: "Export OMERO objects as RDF triples",
		Long: TitleStyle.Render("omero-rdf") + SubtitleStyle.Render(" - RDF export for OMERO servers") + `

omero-rdf walks the object graph of an OMERO server starting from an
Image, Dataset, Project, Plate or Screen and emits the objects, their
relationships and their annotations as RDF triples. Output can be
streamed as N-Triples or collected into Turtle, JSON-LD or an RO-Crate
metadata document.

` + SubtitleStyle.Render("Examples:") + `
  omero-rdf export Image:123                   Stream an image as N-Triples
  omero-rdf export --pretty Dataset:5          Pretty Turtle for a dataset
  omero-rdf export -F=jsonld --file=out.jsonld Screen:9
  omero-rdf ingest annotations.ttl --image 123
  omero-rdf formats                            List output formats`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/omero-rdf/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&serverHost, "server", "s", "", "OMERO server hostname")
	rootCmd.PersistentFlags().IntVarP(&serverPort, "port", "p", 0, "OMERO web port")
	rootCmd.PersistentFlags().StringVarP(&serverUser, "user", "u", "", "OMERO username")
	rootCmd.PersistentFlags().StringVar(&serverSession, "session", "", "reuse an existing OMERO session token")

	// Add subcommands
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(formatsCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		printIssue(issue.ConfigLoadFailedId)
		loaded = config.DefaultConfig()
	}
	cfg = loaded

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}
}

// serverConfig resolves the connection settings: flag > environment/config.
// Environment variables are already merged into cfg by config.Load.
func serverConfig() omero.Config {
	sc := cfg.Server
	if serverHost != "" {
		sc.Host = serverHost
	}
	if serverPort != 0 {
		sc.Port = serverPort
	}
	if serverUser != "" {
		sc.User = serverUser
	}
	if serverSession != "" {
		sc.Session = serverSession
	}
	return omero.Config{
		Host:         sc.Host,
		Port:         sc.Port,
		Username:     sc.User,
		Password:     sc.Password,
		SessionToken: sc.Session,
		ServerID:     sc.ID,
	}
}

// connect builds and connects an OMERO client from the resolved settings.
func connect(ctx context.Context, logger *log.Logger) (*omero.Client, error) {
	client := omero.New(serverConfig(), logger)
	if err := client.Connect(ctx); err != nil {
		printIssue(issue.ConnectionFailedId)
		return nil, issue.NewErrorContext().
			WithOperation("connect to OMERO server").
			WithResource(serverConfig().Host).
			WithSuggestion("Check the server hostname and port (--server/--port)").
			WithSuggestion("Verify your credentials or session token").
			WithSuggestion("Run with --verbose for the full HTTP exchange").
			Wrap(err).
			BuildError()
	}
	return client, nil
}

// newLogger builds the CLI logger; --verbose raises the level to debug.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "omero-rdf",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// printIssue writes the rendered catalog entry for an id to stderr. A zero
// or unknown id prints nothing.
func printIssue(id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	if rendered, err := entry.Render("dark"); err == nil {
		fmt.Fprint(os.Stderr, rendered)
	}
}
