package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "kumoney/internal/errors"
)

// Provider identifies how an account authenticates.
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderGoogle   Provider = "google"
)

// Tier is a subscription level.
type Tier string

const (
	TierFree      Tier = "free"
	TierPro       Tier = "pro"
	TierUnlimited Tier = "unlimited"
)

// User represents an identity record. Password-based and OAuth accounts share
// the table; use Origin to branch on the account kind.
type User struct {
	Base
	Email                           string     `gorm:"uniqueIndex;not null" json:"email"`
	Name                            string     `gorm:"not null" json:"name"`
	Provider                        Provider   `gorm:"size:16;not null;default:'password'" json:"-"`
	PasswordHash                    *string    `json:"-"`
	Status                          Tier       `gorm:"size:16;not null;default:'free'" json:"status"`
	Verified                        bool       `gorm:"not null;default:false" json:"verified"`
	EmailVerificationToken          *string    `gorm:"index" json:"-"`
	EmailVerificationTokenExpiresAt *time.Time `json:"-"`
	LastVerificationEmailSentAt     *time.Time `json:"-"`
}

// AccountOrigin is either a CredentialAccount or an OAuthAccount.
type AccountOrigin interface {
	isAccountOrigin()
}

// CredentialAccount is an account that signs in with a password.
type CredentialAccount struct {
	PasswordHash string
}

// OAuthAccount is an account created through a third-party identity provider.
type OAuthAccount struct {
	Provider Provider
}

func (CredentialAccount) isAccountOrigin() {}
func (OAuthAccount) isAccountOrigin()      {}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewCredentialUser builds an unverified password account.
func NewCredentialUser(email, name, passwordHash string) *User {
	return &User{
		Email:        NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		Provider:     ProviderPassword,
		PasswordHash: &passwordHash,
		Status:       TierFree,
	}
}

// NewOAuthUser builds a verified account without a password.
func NewOAuthUser(email, name string, provider Provider) *User {
	return &User{
		Email:    NormalizeEmail(email),
		Name:     strings.TrimSpace(name),
		Provider: provider,
		Status:   TierFree,
		Verified: true,
	}
}

// Origin returns the tagged account kind.
func (u *User) Origin() AccountOrigin {
	if u.Provider == ProviderPassword && u.PasswordHash != nil {
		return CredentialAccount{PasswordHash: *u.PasswordHash}
	}
	return OAuthAccount{Provider: u.Provider}
}

// SetVerificationToken stores a pending verification token.
func (u *User) SetVerificationToken(token string, expiresAt time.Time) {
	u.EmailVerificationToken = &token
	u.EmailVerificationTokenExpiresAt = &expiresAt
}

// ClearVerificationToken marks the email verified and drops the pending token.
func (u *User) ClearVerificationToken() {
	u.Verified = true
	u.EmailVerificationToken = nil
	u.EmailVerificationTokenExpiresAt = nil
}

// VerificationTokenExpired reports whether the pending token is past its expiry.
func (u *User) VerificationTokenExpired(now time.Time) bool {
	return u.EmailVerificationTokenExpiresAt == nil || now.After(*u.EmailVerificationTokenExpiresAt)
}

// BeforeSave rejects password accounts without a hash.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Provider == ProviderPassword && (u.PasswordHash == nil || *u.PasswordHash == "") {
		return apperrors.ErrMissingPasswordHash
	}
	return nil
}
