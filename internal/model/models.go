package model

import (
	"time"
)

// Descriptor is one stored proxy: a protocol tag plus its raw field values.
type Descriptor struct {
	ID       string `gorm:"primaryKey;size:36"`
	Protocol string `gorm:"index"`
	Name     string
	Fields   map[string]any `gorm:"serializer:json;type:text"`

	// Key identifies the endpoint and credential so re-imports are skipped.
	Key     string `gorm:"column:dedup_key;uniqueIndex"`
	Source  string
	Country string `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
