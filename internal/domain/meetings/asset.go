package meetings

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AssetKindAudio    = "audio"
	AssetKindVideo    = "video"
	AssetKindDocument = "document"
)

type Asset struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MeetingID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"meeting_id"`
	Kind         string     `gorm:"column:kind;not null;index" json:"kind"`
	OriginalName string     `gorm:"column:original_name;not null" json:"original_name"`
	MimeType     string     `gorm:"column:mime_type" json:"mime_type"`
	StorageKey   string     `gorm:"column:storage_key;not null;uniqueIndex" json:"storage_key"`
	SizeBytes    int64      `gorm:"column:size_bytes" json:"size_bytes,omitempty"`
	UploadedAt   *time.Time `gorm:"column:uploaded_at" json:"uploaded_at,omitempty"`

	Artefacts []Artefact `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"artefacts,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Asset) TableName() string { return "asset" }

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Transcribable reports whether a provider can take the asset's bytes.
func (a *Asset) Transcribable() bool {
	return a != nil && (a.Kind == AssetKindAudio || a.Kind == AssetKindVideo)
}

// AssetKindForMime classifies an upload by MIME type, falling back to the
// file extension.
func AssetKindForMime(mime, name string) string {
	m := strings.ToLower(strings.TrimSpace(mime))
	switch {
	case strings.HasPrefix(m, "audio/"):
		return AssetKindAudio
	case strings.HasPrefix(m, "video/"):
		return AssetKindVideo
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".wav", ".mp3", ".m4a", ".flac", ".ogg", ".opus":
		return AssetKindAudio
	case ".mp4", ".m4v", ".mov", ".webm":
		return AssetKindVideo
	}
	return AssetKindDocument
}
