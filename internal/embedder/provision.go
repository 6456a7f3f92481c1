package embedder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/imagesim/internal/logger"
)

// EnsureModel guarantees a local copy of the embedding model exists at path,
// downloading it from url on first run. The download is written to a temp
// file in the destination directory and renamed into place so a partial fetch
// never leaves a truncated asset behind. An existing file is trusted as-is;
// there is no refresh or versioning.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - path: destination path of the model asset.
//   - url: HTTPS source of the asset.
// Returns:
//   - error: non-nil if the destination is not writable or the fetch fails.
func EnsureModel(ctx context.Context, path, url string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat model asset %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for model download: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	logger.CtxInfo(ctx, "Downloading embedding model: url=%s, path=%s", url, path)
	start := time.Now()

	client := resty.New().SetTimeout(5 * time.Minute)
	resp, err := client.R().
		SetContext(ctx).
		SetOutput(tmpPath).
		Get(url)
	if err != nil {
		return fmt.Errorf("failed to download model from %s: %w", url, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("model download from %s returned status %d", url, resp.StatusCode())
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to stat downloaded model: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("model download from %s produced an empty file", url)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move model into place at %s: %w", path, err)
	}

	logger.With(logger.Fields{
		logger.FieldSize:       int(info.Size()),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info(ctx, "Embedding model downloaded")

	return nil
}
