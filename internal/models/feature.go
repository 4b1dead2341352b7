package models

import (
	"encoding/json"
	"time"
)

// Feature priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Feature statuses.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Feature is a dated, prioritised work item within a roadmap.
type Feature struct {
	BaseModel

	RoadmapID   string    `gorm:"type:uuid;not null;index" json:"roadmap_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Priority    string    `gorm:"default:medium" json:"priority"`
	Status      string    `gorm:"default:planned" json:"status"`
	Release     string    `json:"release"`
	Date        time.Time `gorm:"not null;index" json:"-"`

	Roadmap *Roadmap `gorm:"foreignKey:RoadmapID" json:"-"`
}

// DateLayout is the wire format for feature dates.
const DateLayout = "2006-01-02"

// MarshalJSON renders the feature with a date-only ISO date field.
func (f Feature) MarshalJSON() ([]byte, error) {
	type alias Feature
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{
		alias: alias(f),
		Date:  f.Date.Format(DateLayout),
	})
}

// ValidPriority reports whether the value is one of the fixed priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidStatus reports whether the value is one of the fixed statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}
