package fileserver

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestRoutesServeStatic(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "shop", "b1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "x.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileServer(0, root, slog.New(slog.DiscardHandler))

	req := httptest.NewRequest("GET", "/static/shop/b1/x.png", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("body %q", rec.Body.String())
	}

	req = httptest.NewRequest("GET", "/static/shop/b1/missing.png", nil)
	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d for missing file", rec.Code)
	}
}
