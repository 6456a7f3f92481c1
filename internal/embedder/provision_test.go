package embedder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureModelDownloadsOnce(t *testing.T) {
	payload := []byte("model-bytes")
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(payload)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "models", "embedder.tflite")
	ctx := context.Background()

	if err := EnsureModel(ctx, path, srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("model asset missing: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("unexpected asset contents: %q", got)
	}

	// A present asset must be trusted with no network I/O
	if err := EnsureModel(ctx, path, srv.URL); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if requests != 1 {
		t.Errorf("expected a single download, got %d requests", requests)
	}
}

func TestEnsureModelFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "embedder.tflite")

	if err := EnsureModel(context.Background(), path, srv.URL); err == nil {
		t.Fatal("expected an error for a failed download")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed download must not leave an asset behind")
	}
}
