// SPDX-License-Identifier: GPL-2.0-or-later

package cmd

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	// Registers the IDR annotation handler.
	_ "github.com/German-BioImaging/omero-rdf/internal/idr"
	"github.com/German-BioImaging/omero-rdf/internal/issue"
	"github.com/German-BioImaging/omero-rdf/internal/omero"
	"github.com/German-BioImaging/omero-rdf/internal/rdfexport"
	"github.com/German-BioImaging/omero-rdf/internal/rdfexport/format"
)

var (
	exportFormat    string
	exportPretty    bool
	exportDescent   string
	exportEllide    bool
	exportTrimWS    bool
	exportFirstWins bool
	exportFile      string
	exportAssumeYes bool
	exportHandlers  []string

	exportCmd = &cobra.Command{
		Use:   "export <Type:ID>...",
		Short: "Export OMERO objects as RDF",
		Long: `Export one or more OMERO objects and everything below them as RDF.

Targets are given as proxy strings like Image:123, Dataset:5, Project:7,
Plate:2 or Screen:9. Containers are descended recursively by default;
--descent=flat emits only the starting objects and their direct links.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExport,
	}
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "F", format.Default, "output format: "+strings.Join(format.Names(), ", "))
	exportCmd.Flags().BoolVar(&exportPretty, "pretty", false, "shortcut for --format=turtle")
	exportCmd.Flags().StringVarP(&exportDescent, "descent", "S", rdfexport.DescentRecursive, "descent strategy: recursive or flat")
	exportCmd.Flags().BoolVar(&exportEllide, "ellide", false, "shorten long string literals")
	exportCmd.Flags().BoolVar(&exportTrimWS, "trim-whitespace", false, "strip surrounding whitespace from literals instead of warning")
	exportCmd.Flags().BoolVarP(&exportFirstWins, "first-handler-wins", "1", false, "stop after the first annotation handler that handles an annotation")
	exportCmd.Flags().StringVar(&exportFile, "file", "", "output file ('-' or empty writes to stdout; a .gz suffix enables gzip)")
	exportCmd.Flags().BoolVarP(&exportAssumeYes, "yes", "y", false, "do not ask for confirmation on extension mismatch")
	exportCmd.Flags().StringSliceVar(&exportHandlers, "handler", nil, "annotation handlers to enable (e.g. idr)")
	exportCmd.MarkFlagsMutuallyExclusive("format", "pretty")
}

func runExport(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	if exportPretty {
		exportFormat = "turtle"
	}

	targets, err := omero.ParseTargets(args)
	if err != nil {
		var unknown *omero.UnknownKindError
		if errors.As(err, &unknown) {
			printIssue(issue.UnknownTargetId)
			return &ExitError{Code: rdfexport.StatusUnknownTarget, Err: err}
		}
		return err
	}

	if err := confirmExtension(cmd, exportFile, exportFormat); err != nil {
		return err
	}

	out, closeOut, err := openOutput(exportFile)
	if err != nil {
		printIssue(issue.OutputFileId)
		return issue.NewErrorContext().
			WithOperation("open output file").
			WithResource(exportFile).
			WithSuggestion("Check that the directory exists and is writable").
			Wrap(err).
			BuildError()
	}
	defer closeOut()

	writer, err := format.New(exportFormat, out)
	if err != nil {
		printIssue(issue.UnknownFormatId)
		return issue.NewErrorContext().
			WithOperation("select output format").
			WithResource(exportFormat).
			WithSuggestion("Run 'omero-rdf formats' for the supported formats").
			Wrap(err).
			BuildError()
	}

	handlers := exportHandlers
	if handlers == nil {
		handlers = cfg.Handlers
	}

	ctx := cmd.Context()
	client, err := connect(ctx, logger)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	handler, err := rdfexport.NewHandler(client, writer, rdfexport.Options{
		Descent:          exportDescent,
		Ellide:           exportEllide,
		TrimWhitespace:   exportTrimWS,
		FirstHandlerWins: exportFirstWins,
		Handlers:         handlers,
	}, logger)
	if err != nil {
		return err
	}

	if err := handler.DescendAll(ctx, targets); err != nil {
		mapped := exportExitError(err)
		var exitErr *ExitError
		if errors.As(mapped, &exitErr) {
			printIssue(exportIssueID(exitErr.Code))
		}
		return mapped
	}
	if err := handler.Close(); err != nil {
		return fmt.Errorf("failed to finish output: %w", err)
	}
	if err := closeOut(); err != nil {
		printIssue(issue.OutputFileId)
		return fmt.Errorf("failed to close output %s: %w", exportFile, err)
	}
	return nil
}

// exportExitError maps export failures to the CLI exit code contract:
// 110 for missing objects, 111 for unknown target kinds.
func exportExitError(err error) error {
	var ee *rdfexport.ExportError
	if errors.As(err, &ee) {
		return &ExitError{Code: ee.Status, Err: err}
	}
	return err
}

// exportIssueID selects the catalog entry matching an export exit status.
// Zero means no entry applies.
func exportIssueID(status int) issue.Id {
	switch status {
	case rdfexport.StatusNotFound:
		return issue.ObjectNotFoundId
	case rdfexport.StatusUnknownTarget:
		return issue.UnknownTargetId
	}
	return 0
}

// confirmExtension warns when the output file extension does not match the
// selected format and asks for confirmation unless --yes was given. A .gz
// suffix is stripped before comparing.
func confirmExtension(cmd *cobra.Command, path, formatName string) error {
	if path == "" || path == "-" {
		return nil
	}
	name := strings.TrimSuffix(strings.ToLower(path), ".gz")
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return nil
	}
	for _, want := range format.Extensions(formatName) {
		if ext == want {
			return nil
		}
	}

	fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+fmt.Sprintf(
		"extension %q does not match format %s (expected %s)",
		ext, CmdStyle.Render(formatName), strings.Join(format.Extensions(formatName), ", ")))
	if exportAssumeYes {
		return nil
	}

	fmt.Fprint(os.Stderr, "Continue anyway? [y/N] ")
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		return &ExitError{Code: 1, Err: errors.New("aborted")}
	}
	return nil
}

// openOutput resolves the --file flag. Stdout is never closed; gzip output
// is flushed and closed before the file. The close func reports flush and
// close failures so a truncated file cannot pass silently.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, f.Close, nil
	}

	gz := gzip.NewWriter(f)
	return gz, func() error {
		if err := gz.Close(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}
