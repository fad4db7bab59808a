package services

import (
	"context"

	"gorm.io/gorm"

	"kumoney/internal/models"
	"kumoney/internal/pagination"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims are the identity fields embedded in a signed token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// TokenPair is an access token together with its refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenServicer signs and verifies access and refresh tokens.
type TokenServicer interface {
	IssueAccessToken(claims Claims) (string, error)
	IssueRefreshToken(claims Claims) (string, error)
	IssuePair(claims Claims) (*TokenPair, error)
	Verify(token string, kind TokenKind) (*Claims, error)
}

// PackageCataloger is a read-only lookup of subscription packages.
type PackageCataloger interface {
	FindByTier(tier models.Tier) (*models.Package, error)
	List() []models.Package
}

// SubscriptionServicer provisions and reads subscription entitlements.
type SubscriptionServicer interface {
	CreateDefault(tx *gorm.DB, user *models.User) (*models.Subscription, error)
	EnsureDefault(tx *gorm.DB, user *models.User) (*models.Subscription, bool, error)
	GetActive(ctx context.Context, userID string) (*models.Subscription, error)
	ReconcileMissing(ctx context.Context) (int, error)
}

// OAuthIdentity holds the identity claims extracted from a third-party ID token.
type OAuthIdentity struct {
	Email   string
	Name    string
	Picture string
}

// OAuthVerifier validates a third-party identity token.
type OAuthVerifier interface {
	Verify(ctx context.Context, idToken string) (*OAuthIdentity, error)
}

// EmailSender delivers verification emails.
type EmailSender interface {
	SendVerification(ctx context.Context, email, token string) error
}

// AuthResult is returned by the login flows.
type AuthResult struct {
	User    *models.User
	Tokens  TokenPair
	Picture string
}

// AuthServicer defines the contract for authentication and email verification.
type AuthServicer interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GetMe(ctx context.Context, userID string) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	GoogleAuth(ctx context.Context, idToken string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AuditFilter narrows an audit log listing. Empty fields match everything.
type AuditFilter struct {
	UserID string
	Action string
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID, action, email, ipAddress string, details map[string]interface{})
	List(ctx context.Context, filter AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
