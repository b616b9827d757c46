package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreWriteAndURL(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	key, err := store.Write(context.Background(), "/generated/jobs/abc/primary.png", []byte("png"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if key != "generated/jobs/abc/primary.png" {
		t.Fatalf("key = %q", key)
	}
	if got := store.URL(key); got != "http://localhost:8080/static/generated/jobs/abc/primary.png" {
		t.Fatalf("URL = %q", got)
	}
	data, err := os.ReadFile(filepath.Join(store.BasePath(), "generated", "jobs", "abc", "primary.png"))
	if err != nil || string(data) != "png" {
		t.Fatalf("stored data = %q, %v", data, err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	cases := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "a/b.png", want: "a/b.png"},
		{key: `a\b.png`, want: "a/b.png"},
		{key: "./a/../b.png", want: "b.png"},
		{key: "../escape.png", wantErr: true},
		{key: "..", wantErr: true},
		{key: "  ", wantErr: true},
	}
	for _, tc := range cases {
		got, err := sanitizeKey(tc.key)
		if tc.wantErr {
			if err == nil {
				t.Errorf("sanitizeKey(%q) = %q, want error", tc.key, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("sanitizeKey(%q) = %q, %v; want %q", tc.key, got, err, tc.want)
		}
	}
}

func TestFileStoreHandlerServesFilesOnly(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, err := store.Write(context.Background(), "dir/file.txt", []byte("hello")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	srv := httptest.NewServer(store.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/dir/file.txt")
	if err != nil {
		t.Fatalf("GET file: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "hello" {
		t.Fatalf("file response = %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/dir/")
	if err != nil {
		t.Fatalf("GET dir: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("directory listing status = %d", resp.StatusCode)
	}
}
