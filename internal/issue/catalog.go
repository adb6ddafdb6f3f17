// SPDX-License-Identifier: GPL-2.0-or-later

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConnectionFailedId Id = iota + 1
	ObjectNotFoundId
	UnknownTargetId
	UnknownFormatId
	OutputFileId
	ConfigLoadFailedId
	IngestParseFailedId
	AnnotationUploadFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to look up the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links shown under "See also"
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render produces the terminal-formatted help text for the issue.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- " + string(link) + "\n"
		}
		for _, link := range i.extLinks {
			md += "- " + string(link) + "\n"
		}
	}
	return glamour.Render(md, stylePath)
}

// Get returns the catalog entry for an id, or nil when unknown.
func Get(id Id) *Issue {
	for _, i := range catalog {
		if i.id == id {
			return i
		}
	}
	return nil
}

var catalog = []*Issue{
	{
		id: ConnectionFailedId,
		mdMsg: "# Connection failed\n\n" +
			"The OMERO server could not be reached or rejected the login.\n\n" +
			"Check the server host and port, and that the credentials or\n" +
			"session token are still valid. Public servers such as\n" +
			"`idr.openmicroscopy.org` accept the `public` user.",
		docLinks: []HttpLink{"https://omero.readthedocs.io/en/stable/developers/json-api.html"},
	},
	{
		id: ObjectNotFoundId,
		mdMsg: "# Object not found\n\n" +
			"The target object does not exist on the server, or the current\n" +
			"user has no permission to read it. Group membership matters:\n" +
			"objects in other groups are invisible without cross-group\n" +
			"querying.",
		docLinks: []HttpLink{"https://omero.readthedocs.io/en/stable/sysadmins/server-permissions.html"},
	},
	{
		id: UnknownTargetId,
		mdMsg: "# Unknown target\n\n" +
			"Targets take the form `Type:id`, where `Type` is one of\n" +
			"`Image`, `Dataset`, `Project`, `Plate` or `Screen`, e.g.\n" +
			"`omero-rdf export Image:123`.",
		docLinks: []HttpLink{"https://github.com/German-BioImaging/omero-rdf#usage"},
	},
	{
		id: UnknownFormatId,
		mdMsg: "# Unknown format\n\n" +
			"Run `omero-rdf formats` to list the supported RDF\n" +
			"serializations and their file extensions.",
		docLinks: []HttpLink{"https://github.com/German-BioImaging/omero-rdf#usage"},
	},
	{
		id: OutputFileId,
		mdMsg: "# Output file\n\n" +
			"The output file could not be created. `--file -` writes to\n" +
			"stdout; a `.gz` suffix enables gzip compression.",
		docLinks: []HttpLink{"https://github.com/German-BioImaging/omero-rdf#usage"},
	},
	{
		id: ConfigLoadFailedId,
		mdMsg: "# Configuration error\n\n" +
			"The configuration file could not be read. Connection settings\n" +
			"can also be supplied via flags or the `OMERO_HOST`,\n" +
			"`OMERO_USER`, `OMERO_PASSWORD` and `OMERO_SESSION` environment\n" +
			"variables.",
		docLinks: []HttpLink{"https://github.com/German-BioImaging/omero-rdf#configuration"},
	},
	{
		id: IngestParseFailedId,
		mdMsg: "# RDF parse error\n\n" +
			"The input file could not be parsed. The format is inferred\n" +
			"from the file extension (`.ttl`, `.nt`, `.jsonld`, ...); rename\n" +
			"the file or convert it to a supported serialization.",
		docLinks: []HttpLink{"https://www.w3.org/TR/turtle/"},
	},
	{
		id: AnnotationUploadFailedId,
		mdMsg: "# Annotation upload failed\n\n" +
			"The map annotations could not be saved. Writing requires a\n" +
			"logged-in user with write access to the image's group; the\n" +
			"`public` user on demo servers is read-only.",
		docLinks: []HttpLink{"https://omero.readthedocs.io/en/stable/sysadmins/server-permissions.html"},
	},
}
