// SPDX-License-Identifier: GPL-2.0-or-later

package cmd

import (
	"errors"
	"testing"

	"github.com/German-BioImaging/omero-rdf/internal/ingest"
	"github.com/German-BioImaging/omero-rdf/internal/issue"
)

func TestIngestIssueID(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{
			name: "upload failure",
			err:  &ingest.UploadError{Namespace: "http://example.org/ns", Uploaded: 1, Err: errors.New("403")},
			want: issue.AnnotationUploadFailedId,
		},
		{
			name: "wrapped upload failure",
			err:  errors.Join(errors.New("context"), &ingest.UploadError{Err: errors.New("403")}),
			want: issue.AnnotationUploadFailedId,
		},
		{
			name: "parse failure",
			err:  errors.New("parse annotations.ttl: bad syntax"),
			want: issue.IngestParseFailedId,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ingestIssueID(tt.err)
			if got != tt.want {
				t.Errorf("ingestIssueID() = %d, want %d", got, tt.want)
			}
			if issue.Get(got) == nil {
				t.Errorf("issue.Get(%d) = nil, want catalog entry", got)
			}
		})
	}
}
