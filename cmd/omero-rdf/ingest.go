// SPDX-License-Identifier: GPL-2.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/German-BioImaging/omero-rdf/internal/ingest"
	"github.com/German-BioImaging/omero-rdf/internal/issue"
)

var (
	ingestImageID     int64
	ingestConcatenate bool

	ingestCmd = &cobra.Command{
		Use:   "ingest <file> --image <id>",
		Short: "Attach the statements of an RDF file to an image",
		Long: `Parse an RDF file and upload its statements to an OMERO image as map
annotations. Statements are grouped by predicate namespace; each namespace
becomes one map annotation. The format is inferred from the file extension.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}
)

func init() {
	ingestCmd.Flags().Int64Var(&ingestImageID, "image", 0, "id of the image to annotate")
	ingestCmd.Flags().BoolVar(&ingestConcatenate, "concatenate", false, "join repeated keys into one comma-separated value")
	_ = ingestCmd.MarkFlagRequired("image")
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := cmd.Context()

	client, err := connect(ctx, logger)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	count, err := ingest.Run(ctx, client, args[0], ingestImageID, ingest.Options{
		Concatenate: ingestConcatenate,
	}, logger)
	if err != nil {
		if count > 0 {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+fmt.Sprintf(
				"%d map annotation(s) were already attached to Image:%d before the failure",
				count, ingestImageID))
		}
		printIssue(ingestIssueID(err))
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(fmt.Sprintf(
		"Attached %d map annotation(s) to Image:%d", count, ingestImageID)))
	return nil
}

// ingestIssueID selects the catalog entry for an ingest failure: upload
// errors come typed from the ingest package, everything else is a read or
// parse problem with the input file.
func ingestIssueID(err error) issue.Id {
	var ue *ingest.UploadError
	if errors.As(err, &ue) {
		return issue.AnnotationUploadFailedId
	}
	return issue.IngestParseFailedId
}
