// SPDX-License-Identifier: GPL-2.0-or-later

package omero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient wires a Client to an httptest server.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{Host: "omero.test", BaseURL: srv.URL}, nil)
}

func TestConnect(t *testing.T) {
	var gotToken, gotUser, gotServer string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/token/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data": "csrf-abc"}`)
	})
	mux.HandleFunc("/api/v0/login/", func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-CSRFToken")
		gotUser = r.PostFormValue("username")
		gotServer = r.PostFormValue("server")
		fmt.Fprint(w, `{"eventContext": {"userName": "public", "sessionId": 42}}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Config{
		Host:     "omero.test",
		BaseURL:  srv.URL,
		Username: "public",
		Password: "public",
	}, nil)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if gotToken != "csrf-abc" {
		t.Errorf("login X-CSRFToken = %q, want %q", gotToken, "csrf-abc")
	}
	if gotUser != "public" {
		t.Errorf("login username = %q", gotUser)
	}
	if gotServer != "1" {
		t.Errorf("login server = %q, want default %q", gotServer, "1")
	}
}

func TestConnectWithSessionTokenSkipsLogin(t *testing.T) {
	loginCalled := false

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/token/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data": "csrf-abc"}`)
	})
	mux.HandleFunc("/api/v0/login/", func(w http.ResponseWriter, _ *http.Request) {
		loginCalled = true
		w.WriteHeader(http.StatusForbidden)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Config{Host: "omero.test", BaseURL: srv.URL, SessionToken: "sess-1"}, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if loginCalled {
		t.Error("Connect() should not log in when a session token is supplied")
	}
}

func TestObject(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/m/images/123/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data": {
			"@id": 123,
			"@type": "http://www.openmicroscopy.org/Schemas/OME/2016-06#Image",
			"Name": "test.tiff"
		}}`)
	})

	client := newTestClient(t, mux)

	obj, err := client.Object(context.Background(), KindImage, 123)
	if err != nil {
		t.Fatalf("Object() error: %v", err)
	}
	if obj["Name"] != "test.tiff" {
		t.Errorf("Name = %v", obj["Name"])
	}
	// Numbers must survive as json.Number so ids keep full precision.
	if _, ok := obj["@id"].(json.Number); !ok {
		t.Errorf("@id decoded as %T, want json.Number", obj["@id"])
	}
}

func TestObjectNotFound(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, err := client.Object(context.Background(), KindImage, 999)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Object() error = %v, want NotFoundError", err)
	}
	if nf.Kind != KindImage || nf.ID != 999 {
		t.Errorf("NotFoundError = %+v", nf)
	}
}

func TestObjectUnknownKind(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, err := client.Object(context.Background(), Kind("Fileset"), 1)
	var unknown *UnknownKindError
	if !errors.As(err, &unknown) {
		t.Fatalf("Object() error = %v, want UnknownKindError", err)
	}
}

func TestCollectionPaging(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/m/images/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("dataset"); got != "5" {
			t.Errorf("dataset filter = %q, want %q", got, "5")
		}
		switch r.URL.Query().Get("offset") {
		case "0":
			fmt.Fprint(w, `{"data": [{"@id": 1}, {"@id": 2}], "meta": {"totalCount": 3}}`)
		default:
			fmt.Fprint(w, `{"data": [{"@id": 3}], "meta": {"totalCount": 3}}`)
		}
	})

	client := newTestClient(t, mux)

	images, err := client.Images(context.Background(), 5)
	if err != nil {
		t.Fatalf("Images() error: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("got %d images, want 3", len(images))
	}
	if images[2]["@id"].(json.Number).String() != "3" {
		t.Errorf("last page item = %v", images[2]["@id"])
	}
}

func TestAnnotations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/m/images/7/annotations/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data": [{
			"@id": 10,
			"@type": "http://www.openmicroscopy.org/Schemas/OMERO/2016-06#MapAnnotation"
		}], "meta": {"totalCount": 1}}`)
	})

	client := newTestClient(t, mux)

	anns, err := client.Annotations(context.Background(), KindImage, 7)
	if err != nil {
		t.Fatalf("Annotations() error: %v", err)
	}
	if len(anns) != 1 {
		t.Fatalf("got %d annotations, want 1", len(anns))
	}
}

func TestSaveMapAnnotation(t *testing.T) {
	var saved []map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/m/save/", func(w http.ResponseWriter, r *http.Request) {
		var obj map[string]any
		if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
			t.Fatalf("decode save body: %v", err)
		}
		saved = append(saved, obj)
		obj["@id"] = len(saved)
		json.NewEncoder(w).Encode(map[string]any{"data": obj})
	})

	client := newTestClient(t, mux)

	err := client.SaveMapAnnotation(context.Background(), 123, "http://example.org/ns", [][2]string{
		{"Organism", "Homo sapiens"},
		{"Sex", "female"},
	})
	if err != nil {
		t.Fatalf("SaveMapAnnotation() error: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("got %d save calls, want 2 (annotation + link)", len(saved))
	}

	ann := saved[0]
	if ann["Namespace"] != "http://example.org/ns" {
		t.Errorf("Namespace = %v", ann["Namespace"])
	}
	values := ann["Value"].([]any)
	if len(values) != 2 {
		t.Fatalf("got %d value pairs, want 2", len(values))
	}
	first := values[0].([]any)
	if first[0] != "Organism" || first[1] != "Homo sapiens" {
		t.Errorf("first pair = %v", first)
	}

	link := saved[1]
	if link["child"] == nil || link["parent"] == nil {
		t.Errorf("link object incomplete: %v", link)
	}
}

func TestBaseURLFromHostAndPort(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "default https",
			cfg:  Config{Host: "idr.openmicroscopy.org"},
			want: "https://idr.openmicroscopy.org",
		},
		{
			name: "port 80 is http",
			cfg:  Config{Host: "localhost", Port: 80},
			want: "http://localhost",
		},
		{
			name: "custom port keeps https",
			cfg:  Config{Host: "localhost", Port: 4064},
			want: "https://localhost:4064",
		},
		{
			name: "explicit base URL wins",
			cfg:  Config{Host: "x", Port: 80, BaseURL: "http://127.0.0.1:9000/"},
			want: "http://127.0.0.1:9000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.cfg, nil)
			if c.base != tt.want {
				t.Errorf("base = %q, want %q", c.base, tt.want)
			}
		})
	}
}
