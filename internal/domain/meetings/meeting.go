package meetings

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meeting owns its assets; deleting a meeting removes them (and, through
// them, every artefact).
type Meeting struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Description string     `gorm:"column:description;type:text" json:"description,omitempty"`
	Location    string     `gorm:"column:location" json:"location,omitempty"`
	StartedAt   *time.Time `gorm:"column:started_at;index" json:"started_at,omitempty"`
	EndedAt     *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
	OrganizerID *uuid.UUID `gorm:"type:uuid;column:organizer_id;index" json:"organizer_id,omitempty"`
	Version     int        `gorm:"column:version;not null" json:"version"`

	Assets []Asset `gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE" json:"assets,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Meeting) TableName() string { return "meeting" }

func (m *Meeting) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}
