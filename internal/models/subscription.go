package models

import "time"

// SubscriptionOwner is a snapshot of the owning user at provisioning time.
type SubscriptionOwner struct {
	ID    string `gorm:"type:uuid;not null;index" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"not null" json:"email"`
}

// Subscription grants a user resource limits until ExpiredAt. Limits are
// copied from the package catalog and are write-once.
type Subscription struct {
	Base
	Owner         SubscriptionOwner `gorm:"embedded;embeddedPrefix:owner_" json:"owner"`
	Tier          Tier              `gorm:"size:16;not null" json:"tier"`
	ExpiredAt     time.Time         `gorm:"not null" json:"expired_at"`
	IsActive      bool              `gorm:"not null;default:true" json:"is_active"`
	LimitCategory int               `gorm:"<-:create;not null" json:"limit_category"`
	LimitAccount  int               `gorm:"<-:create;not null" json:"limit_account"`
	LimitIncomes  int               `gorm:"<-:create;not null" json:"limit_incomes"`
	LimitExpenses int               `gorm:"<-:create;not null" json:"limit_expenses"`

	// Bookkeeping for the expiry notification job.
	LastExpiringEmailSent *time.Time `json:"last_expiring_email_sent,omitempty"`
	LastExpiredEmailSent  *time.Time `json:"last_expired_email_sent,omitempty"`
	ExpiredEmailCount     int        `gorm:"not null;default:0" json:"expired_email_count"`
}
