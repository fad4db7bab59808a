package models

import (
	"fmt"
	"time"

	"kumoney/internal/uuid"

	"gorm.io/gorm"
)

// Base holds the columns shared by users, subscriptions, packages and
// audit logs. IDs are UUIDv7 strings so rows sort by creation time.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate assigns an ID when none is set. A preset ID must parse as a
// UUID; sqlite would otherwise store anything in the column.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
		return nil
	}
	if !uuid.IsValid(b.ID) {
		return fmt.Errorf("models: invalid id %q", b.ID)
	}
	return nil
}
