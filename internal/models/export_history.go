package models

// Export formats.
const (
	ExportCSV  = "csv"
	ExportJSON = "json"
)

// ExportHistory records a completed roadmap export.
type ExportHistory struct {
	BaseModel

	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	RoadmapID string `gorm:"type:uuid;not null;index" json:"roadmap_id"`
	Format    string `gorm:"not null" json:"format"`
	RowCount  int    `json:"row_count"`

	Roadmap *Roadmap `gorm:"foreignKey:RoadmapID;constraint:OnDelete:CASCADE" json:"-"`
}
