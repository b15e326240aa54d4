package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreWriteAndServe(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key, err := store.Write(context.Background(), "/stability/../stability/a.png", []byte("img"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "stability/a.png" {
		t.Fatalf("key = %q", key)
	}
	if got := store.URL(key); got != "http://localhost:8080/static/stability/a.png" {
		t.Fatalf("URL = %q", got)
	}
	if data, err := os.ReadFile(filepath.Join(dir, "stability", "a.png")); err != nil || string(data) != "img" {
		t.Fatalf("file not written: %v", err)
	}

	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stability/a.png", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "img" {
		t.Fatalf("unexpected serve result %d %q", rec.Code, rec.Body.String())
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "  ", "../etc/passwd", "a/../../b", "."} {
		if _, err := sanitizeKey(key); err == nil {
			t.Fatalf("expected error for %q", key)
		}
	}
}

func TestWriteHonoursCancelledContext(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "a.png", []byte("x")); err == nil {
		t.Fatalf("expected context error")
	}
}
