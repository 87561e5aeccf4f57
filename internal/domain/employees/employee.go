package employees

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee updates are versioned (optimistic lock); deletes are soft.
type Employee struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName  string         `gorm:"column:first_name;not null" json:"first_name"`
	LastName   string         `gorm:"column:last_name;not null" json:"last_name"`
	Email      string         `gorm:"column:email;index" json:"email"`
	Title      string         `gorm:"column:title" json:"title,omitempty"`
	Department string         `gorm:"column:department;index" json:"department,omitempty"`
	Version    int            `gorm:"column:version;not null" json:"version"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Employee) TableName() string { return "employee" }

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Version == 0 {
		e.Version = 1
	}
	return nil
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}
