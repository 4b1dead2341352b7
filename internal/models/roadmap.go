package models

// Roadmap is the top-level planning container. It is owned by exactly one
// user; collaborators are attached through ProjectMember rows.
type Roadmap struct {
	BaseModel

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	OwnerID     string `gorm:"type:uuid;not null;index" json:"owner_id"`
	IsPublic    bool   `gorm:"default:false" json:"is_public"`

	Owner    *User           `gorm:"foreignKey:OwnerID" json:"-"`
	Features []Feature       `gorm:"foreignKey:RoadmapID;constraint:OnDelete:CASCADE" json:"features,omitempty"`
	Members  []ProjectMember `gorm:"foreignKey:RoadmapID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Links    []ShareableLink `gorm:"foreignKey:RoadmapID;constraint:OnDelete:CASCADE" json:"-"`
}
