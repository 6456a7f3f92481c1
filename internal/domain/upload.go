package domain

import (
	"path/filepath"
	"time"
)

// Upload represents a user-submitted image stored on disk.
// Uploads are referenced externally through the opaque ID, never by the
// caller-supplied filename.
type Upload struct {
	ID           string    `gorm:"type:text;primaryKey" json:"id"`
	StoredName   string    `gorm:"type:text;not null;uniqueIndex:idx_uploads_stored_name" json:"stored_name"`
	OriginalName string    `gorm:"type:text;not null" json:"original_name"`
	Extension    string    `gorm:"type:text" json:"extension"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `gorm:"index:idx_uploads_created_at" json:"created_at"`
}

// TableName returns the database table name for Upload.
func (Upload) TableName() string {
	return "uploads"
}

// Path resolves the on-disk location of the upload inside dir.
func (u *Upload) Path(dir string) string {
	return filepath.Join(dir, u.StoredName)
}
