// SPDX-License-Identifier: GPL-2.0-or-later

package main

import cmd "github.com/German-BioImaging/omero-rdf/cmd/omero-rdf"

func main() {
	cmd.Execute()
}
