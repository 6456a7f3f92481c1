package repository

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/imagesim/internal/domain"
	"gorm.io/gorm"
)

// ErrUploadNotFound is returned when no upload matches the given reference.
var ErrUploadNotFound = errors.New("upload not found")

// UploadRepository handles upload registry operations.
type UploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository creates a new UploadRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *UploadRepository: repository instance bound to db.
func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Create inserts a new upload record.
func (r *UploadRepository) Create(ctx context.Context, upload *domain.Upload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}

// GetByID retrieves an upload by its opaque ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: upload ID.
// Returns:
//   - *domain.Upload: upload record if found.
//   - error: ErrUploadNotFound if no record matches, otherwise the query error.
func (r *UploadRepository) GetByID(ctx context.Context, id string) (*domain.Upload, error) {
	var upload domain.Upload
	if err := r.db.WithContext(ctx).First(&upload, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &upload, nil
}

// GetByStoredName retrieves an upload by its on-disk filename.
func (r *UploadRepository) GetByStoredName(ctx context.Context, name string) (*domain.Upload, error) {
	var upload domain.Upload
	if err := r.db.WithContext(ctx).First(&upload, "stored_name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &upload, nil
}

// ListCreatedBefore retrieves uploads older than cutoff, oldest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - cutoff: creation-time cutoff.
//   - limit: maximum number of records to return.
// Returns:
//   - []domain.Upload: matching upload records.
//   - error: non-nil if the query fails.
func (r *UploadRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Upload, error) {
	var uploads []domain.Upload
	if err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&uploads).Error; err != nil {
		return nil, err
	}
	return uploads, nil
}

// Delete removes an upload record by ID.
func (r *UploadRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Upload{}, "id = ?", id).Error
}
