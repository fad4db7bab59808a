package models

// AuditLog records authentication events for security review.
type AuditLog struct {
	Base
	UserID    *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string  `gorm:"not null" json:"action"`
	Email     string  `json:"email"`
	IPAddress string  `json:"ip_address"`
	Details   string  `json:"details,omitempty"`
}
