// models/base.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the store-assigned bookkeeping shared by every mirrored record.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36;not null" json:"id"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns a UUID when the record has none yet.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Base) RecordID() string           { return b.ID }
func (b *Base) SetRecordID(id string)      { b.ID = id }
func (b *Base) RecordCreatedAt() time.Time { return b.CreatedAt }
func (b *Base) SetRecordCreatedAt(t time.Time) {
	b.CreatedAt = t
	b.UpdatedAt = t
}
func (b *Base) Touch(t time.Time) { b.UpdatedAt = t }
