package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/imagesim/internal/domain"
	"github.com/timmy/imagesim/internal/embedder"
	"github.com/timmy/imagesim/internal/logger"
	"github.com/timmy/imagesim/internal/repository"
)

// allowedExtensions lists the upload formats the service accepts, compared
// case-insensitively.
var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"bmp":  true,
}

// UploadConfig holds configuration for the upload service.
type UploadConfig struct {
	Dir           string
	Retention     time.Duration
	SweepInterval time.Duration
}

// UploadStore is the registry capability the upload service needs. Satisfied
// by repository.UploadRepository; tests substitute fakes for failure paths.
type UploadStore interface {
	Create(ctx context.Context, upload *domain.Upload) error
	GetByID(ctx context.Context, id string) (*domain.Upload, error)
	GetByStoredName(ctx context.Context, name string) (*domain.Upload, error)
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Upload, error)
	Delete(ctx context.Context, id string) error
}

// UploadService stores uploaded images, resolves opaque references back to
// files, and sweeps expired uploads. External callers never reach disk paths
// with their own strings; lookups go through the registry.
type UploadService struct {
	repo   UploadStore
	logger *logger.Logger
	cfg    UploadConfig
}

// NewUploadService creates a new upload service and ensures the upload
// directory exists.
// Parameters:
//   - repo: upload registry repository.
//   - log: logger instance.
//   - cfg: upload configuration settings.
// Returns:
//   - *UploadService: initialized service.
//   - error: non-nil if the upload directory cannot be created.
func NewUploadService(repo UploadStore, log *logger.Logger, cfg UploadConfig) (*UploadService, error) {
	if cfg.Dir == "" {
		cfg.Dir = "./uploads"
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", cfg.Dir, err)
	}
	return &UploadService{
		repo:   repo,
		logger: log,
		cfg:    cfg,
	}, nil
}

// log returns a logger from context if available, otherwise the service logger
func (s *UploadService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Dir returns the upload directory.
func (s *UploadService) Dir() string {
	return s.cfg.Dir
}

// AllowedFile reports whether filename carries one of the accepted image
// extensions. Files without an extension are rejected.
func AllowedFile(filename string) bool {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return false
	}
	return allowedExtensions[strings.ToLower(ext)]
}

// sanitizeName reduces a caller-supplied filename to a safe basename: path
// components are stripped and anything outside [A-Za-z0-9._-] is replaced.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "upload"
	}
	return out
}

// Store validates and persists one uploaded file under a collision-safe
// timestamp-prefixed name, and registers it under an opaque ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fh: multipart file header from the request.
//   - slot: position of the file in the request (1 or 2), kept in the stored
//     name for operator readability.
// Returns:
//   - *domain.Upload: the registered upload record.
//   - error: *ValidationError for a bad or missing file, otherwise the
//     storage error.
func (s *UploadService) Store(ctx context.Context, fh *multipart.FileHeader, slot int) (*domain.Upload, error) {
	if fh == nil || fh.Filename == "" {
		return nil, NewValidationError("Please select both images")
	}
	if !AllowedFile(fh.Filename) {
		return nil, NewValidationError("Invalid file type. Please upload PNG, JPG, JPEG, GIF, or BMP files.")
	}

	storedName := fmt.Sprintf("%d_%d_%s", time.Now().UnixNano(), slot, sanitizeName(fh.Filename))
	dstPath := filepath.Join(s.cfg.Dir, storedName)

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file %s: %w", dstPath, err)
	}

	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("failed to save upload %s: %w", dstPath, err)
	}

	upload := &domain.Upload{
		ID:           uuid.New().String(),
		StoredName:   storedName,
		OriginalName: fh.Filename,
		Extension:    strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), ".")),
		SizeBytes:    written,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, upload); err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("failed to register upload: %w", err)
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldUploadID: upload.ID,
		logger.FieldSize:     int(written),
	}).Infof("Upload stored: name=%s", storedName)

	return upload, nil
}

// Lookup resolves an upload reference to its registered record. The reference
// is either the opaque ID issued at upload time or a stored filename; either
// way it is matched against the registry, never joined into a path directly.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ref: opaque upload ID or stored filename.
// Returns:
//   - *domain.Upload: the upload, verified to still exist on disk.
//   - error: ErrNotFound for an unknown reference or a missing file,
//     *ValidationError for an empty reference.
func (s *UploadService) Lookup(ctx context.Context, ref string) (*domain.Upload, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, NewValidationError("Image filenames are required")
	}

	var upload *domain.Upload
	var err error
	if _, parseErr := uuid.Parse(ref); parseErr == nil {
		upload, err = s.repo.GetByID(ctx, ref)
	} else {
		upload, err = s.repo.GetByStoredName(ctx, filepath.Base(ref))
	}
	if err != nil {
		if errors.Is(err, repository.ErrUploadNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up upload %q: %w", ref, err)
	}

	if _, err := os.Stat(upload.Path(s.cfg.Dir)); err != nil {
		return nil, ErrNotFound
	}
	return upload, nil
}

// Path returns the on-disk location of a registered upload.
func (s *UploadService) Path(upload *domain.Upload) string {
	return upload.Path(s.cfg.Dir)
}

// SweepOnce deletes uploads older than the retention window, including their
// display-copy siblings and registry rows.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - int: number of uploads removed.
//   - error: non-nil if the expired set cannot be listed.
func (s *UploadService) SweepOnce(ctx context.Context) (int, error) {
	if s.cfg.Retention <= 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-s.cfg.Retention)
	removed := 0

	for {
		expired, err := s.repo.ListCreatedBefore(ctx, cutoff, 100)
		if err != nil {
			return removed, fmt.Errorf("failed to list expired uploads: %w", err)
		}
		if len(expired) == 0 {
			break
		}

		pageRemoved := 0
		for i := range expired {
			u := &expired[i]
			path := u.Path(s.cfg.Dir)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.CtxWarn(ctx, "Failed to remove expired upload: path=%s, error=%v", path, err)
			}
			if err := os.Remove(embedder.DisplayPathFor(path)); err != nil && !os.IsNotExist(err) {
				logger.CtxWarn(ctx, "Failed to remove display copy: path=%s, error=%v", path, err)
			}
			if err := s.repo.Delete(ctx, u.ID); err != nil {
				logger.CtxWarn(ctx, "Failed to delete upload record: upload_id=%s, error=%v", u.ID, err)
				continue
			}
			pageRemoved++
		}
		removed += pageRemoved

		// No registry row went away this page, so the next list would return
		// the same rows again. Stop and retry on the next sweep.
		if pageRemoved == 0 {
			break
		}
		if len(expired) < 100 {
			break
		}
	}

	return removed, nil
}

// StartSweeper runs SweepOnce on a ticker until ctx is cancelled.
func (s *UploadService) StartSweeper(ctx context.Context) {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ctx := logger.SetComponent(ctx, "sweeper")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.SweepOnce(ctx)
				if err != nil {
					logger.CtxError(ctx, "Upload sweep failed: error=%v", err)
					continue
				}
				if removed > 0 {
					logger.With(logger.Fields{
						logger.FieldCount: removed,
					}).Info(ctx, "Expired uploads removed")
				}
			}
		}
	}()
}
