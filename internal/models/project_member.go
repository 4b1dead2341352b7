package models

// Member roles, ordered strongest to weakest.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Membership statuses.
const (
	MemberPending  = "pending"
	MemberActive   = "active"
	MemberInactive = "inactive"
)

// ProjectMember binds a user to a roadmap with a role. A user holds at most
// one membership per roadmap.
type ProjectMember struct {
	BaseModel

	RoadmapID string `gorm:"type:uuid;not null;uniqueIndex:idx_roadmap_user" json:"roadmap_id"`
	UserID    string `gorm:"type:uuid;not null;uniqueIndex:idx_roadmap_user" json:"user_id"`
	Role      string `gorm:"not null;default:viewer" json:"role"`
	Status    string `gorm:"not null;default:active" json:"status"`

	Roadmap *Roadmap `gorm:"foreignKey:RoadmapID" json:"-"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// ValidRole reports whether the value is one of the fixed member roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}
