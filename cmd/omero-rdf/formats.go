// SPDX-License-Identifier: GPL-2.0-or-later

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/German-BioImaging/omero-rdf/internal/rdfexport/format"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the supported export formats",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		for _, name := range format.Names() {
			exts := make([]string, 0, 2)
			for _, e := range format.Extensions(name) {
				exts = append(exts, "."+e)
			}
			marker := " "
			if name == format.Default {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s (%s)\n", marker, CmdStyle.Render(name), strings.Join(exts, ", "))
		}
		fmt.Fprintln(out, SubtitleStyle.Render("* default"))
	},
}
