// SPDX-License-Identifier: GPL-2.0-or-later

package issue

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		id       Id
		wantNil  bool
		contains string
	}{
		{name: "connection failed", id: ConnectionFailedId, contains: "Connection failed"},
		{name: "object not found", id: ObjectNotFoundId, contains: "Object not found"},
		{name: "unknown target", id: UnknownTargetId, contains: "Unknown target"},
		{name: "unknown format", id: UnknownFormatId, contains: "Unknown format"},
		{name: "ingest parse failed", id: IngestParseFailedId, contains: "parse error"},
		{name: "unknown id", id: Id(9999), wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Get(tt.id)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Get(%d) = %v, want nil", tt.id, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Get(%d) = nil", tt.id)
			}
			if got.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", got.Id(), tt.id)
			}
			if !strings.Contains(string(got.MarkdownMsg()), tt.contains) {
				t.Errorf("MarkdownMsg() missing %q", tt.contains)
			}
		})
	}
}

func TestCatalogComplete(t *testing.T) {
	for id := ConnectionFailedId; id <= AnnotationUploadFailedId; id++ {
		if Get(id) == nil {
			t.Errorf("catalog has no entry for id %d", id)
		}
	}
}

func TestIssue_Render(t *testing.T) {
	i := Get(UnknownTargetId)
	out, err := i.Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "Type:id") {
		t.Errorf("rendered output missing target syntax, got:\n%s", out)
	}
	// Links are appended under a "See also" section.
	if !strings.Contains(out, "See also") {
		t.Errorf("rendered output missing doc links, got:\n%s", out)
	}
}
