package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "kumoney/internal/errors"
	"kumoney/internal/logger"
	"kumoney/internal/models"
)

const (
	bcryptCost             = 10
	maxPasswordBytes       = 72
	verificationTokenBytes = 32
	verificationTokenTTL   = time.Hour
)

// dummyPasswordHash is compared against when the email is unknown so both
// login failure paths pay for one bcrypt comparison.
var dummyPasswordHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("kumoney-login-timing"), bcryptCost)
	return hash
})

// authService handles registration, login, and email verification.
type authService struct {
	db            *gorm.DB
	tokens        TokenServicer
	subscriptions SubscriptionServicer
	oauth         OAuthVerifier
	mailer        EmailSender
	emailTimeout  time.Duration
	now           func() time.Time
}

// NewAuthService creates a new AuthServicer. emailTimeout bounds each
// verification email send.
func NewAuthService(
	db *gorm.DB,
	tokens TokenServicer,
	subscriptions SubscriptionServicer,
	oauth OAuthVerifier,
	mailer EmailSender,
	emailTimeout time.Duration,
) AuthServicer {
	return &authService{
		db:            db,
		tokens:        tokens,
		subscriptions: subscriptions,
		oauth:         oauth,
		mailer:        mailer,
		emailTimeout:  emailTimeout,
		now:           time.Now,
	}
}

// Register creates an unverified password account and its default
// subscription in one transaction, then sends the verification email.
//
// If the email cannot be sent the account is kept and both the user and
// ErrEmailDelivery are returned.
func (s *authService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}
	// The request binding counts characters; bcrypt caps bytes.
	if len(password) > maxPasswordBytes {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at most 72 bytes")
	}

	// Fast path only; the unique index on users.email is authoritative.
	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at most 72 bytes")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	token, err := generateVerificationToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := models.NewCredentialUser(email, name, string(hashedPassword))
	user.SetVerificationToken(token, s.now().Add(verificationTokenTTL))

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateEmail
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err := s.subscriptions.CreateDefault(tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.sendVerification(ctx, user.Email, token); err != nil {
		return user, err
	}

	return user, nil
}

// Login checks the password and issues a token pair. Unknown emails, wrong
// passwords and OAuth-only accounts all return ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.findByEmail(s.db.WithContext(ctx), email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash(), []byte(password))
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	credential, ok := user.Origin().(models.CredentialAccount)
	if !ok {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(claimsFor(user))
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: *pair}, nil
}

// GetMe loads the user behind an already verified access token.
func (s *authService) GetMe(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyEmail consumes a pending verification token.
func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.ErrInvalidOrExpiredToken
	}

	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Where("email_verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidOrExpiredToken
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if user.VerificationTokenExpired(s.now()) {
		return apperrors.ErrInvalidOrExpiredToken
	}

	user.ClearVerificationToken()
	if err := db.Save(&user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return nil
}

// ResendVerification issues a fresh verification token and emails it.
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	db := s.db.WithContext(ctx)

	user, err := s.findByEmail(db, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return apperrors.ErrAlreadyVerified
	}

	token, err := generateVerificationToken()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := s.now()
	user.SetVerificationToken(token, now.Add(verificationTokenTTL))
	user.LastVerificationEmailSentAt = &now
	if err := db.Save(user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.sendVerification(ctx, user.Email, token)
}

// GoogleAuth signs in with a Google ID token, creating a verified account and
// its default subscription on first use.
func (s *authService) GoogleAuth(ctx context.Context, idToken string) (*AuthResult, error) {
	identity, err := s.oauth.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.findOrCreateOAuthUser(ctx, identity)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent first login; the row exists now.
		user, err = s.findOrCreateOAuthUser(ctx, identity)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, err
	}

	pair, err := s.tokens.IssuePair(claimsFor(user))
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: *pair, Picture: identity.Picture}, nil
}

// Logout acknowledges the request. Tokens are stateless, so a refresh token
// stays valid until it expires.
func (s *authService) Logout(_ context.Context, refreshToken string) error {
	if claims, err := s.tokens.Verify(refreshToken, TokenKindRefresh); err == nil {
		logger.Get().Debugw("logout acknowledged", "user_id", claims.UserID)
		return nil
	}
	logger.Get().Debugw("logout acknowledged for unrecognised refresh token")
	return nil
}

// findOrCreateOAuthUser returns gorm.ErrDuplicatedKey unwrapped when a
// concurrent request inserted the same email first.
func (s *authService) findOrCreateOAuthUser(ctx context.Context, identity *OAuthIdentity) (*models.User, error) {
	email := models.NormalizeEmail(identity.Email)

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findByEmail(tx, email)
		if err == nil {
			if !existing.Verified {
				existing.ClearVerificationToken()
				if err := tx.Save(existing).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
			user = existing
			return nil
		}
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}

		name := strings.TrimSpace(identity.Name)
		if name == "" {
			name, _, _ = strings.Cut(email, "@")
		}

		created := models.NewOAuthUser(email, name, models.ProviderGoogle)
		if err := tx.Create(created).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if _, err := s.subscriptions.CreateDefault(tx, created); err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) findByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

func (s *authService) emailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

func (s *authService) sendVerification(ctx context.Context, email, token string) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.emailTimeout)
	defer cancel()

	if err := s.mailer.SendVerification(sendCtx, email, token); err != nil {
		return apperrors.Wrap(apperrors.ErrEmailDelivery, err)
	}
	return nil
}

func claimsFor(user *models.User) Claims {
	return Claims{UserID: user.ID, Email: user.Email, Name: user.Name}
}

func generateVerificationToken() (string, error) {
	b := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
