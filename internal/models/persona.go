package models

// Persona captures a customer persona built by a user.
type Persona struct {
	BaseModel

	OwnerID string `gorm:"type:uuid;not null;index" json:"owner_id"`

	Name         string `gorm:"not null" json:"name"`
	Age          *int   `json:"age"`
	JobTitle     string `json:"job_title"`
	Demographics string `json:"demographics"`
	Behaviors    string `json:"behaviors"`
	Goals        string `json:"goals"`
	Pains        string `json:"pains"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}
