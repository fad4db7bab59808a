package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "kumoney/internal/errors"
)

const tokenIssuer = "kumoney-api"

// jwtClaims is the wire form of Claims.
type jwtClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type tokenKey struct {
	secret []byte
	ttl    time.Duration
}

// tokenService signs HS256 tokens with a distinct secret per token kind.
type tokenService struct {
	keys map[TokenKind]tokenKey
	now  func() time.Time
}

// TokenConfig holds the secrets and lifetimes for both token kinds.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// NewTokenService creates a new TokenServicer.
func NewTokenService(cfg TokenConfig) TokenServicer {
	return newTokenService(cfg, time.Now)
}

func newTokenService(cfg TokenConfig, now func() time.Time) *tokenService {
	return &tokenService{
		keys: map[TokenKind]tokenKey{
			TokenKindAccess:  {secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
			TokenKindRefresh: {secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
		},
		now: now,
	}
}

// IssueAccessToken signs a short-lived access token.
func (s *tokenService) IssueAccessToken(claims Claims) (string, error) {
	return s.issue(claims, TokenKindAccess)
}

// IssueRefreshToken signs a long-lived refresh token.
func (s *tokenService) IssueRefreshToken(claims Claims) (string, error) {
	return s.issue(claims, TokenKindRefresh)
}

// IssuePair signs an access and a refresh token for the same claims.
func (s *tokenService) IssuePair(claims Claims) (*TokenPair, error) {
	access, err := s.IssueAccessToken(claims)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(claims)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *tokenService) issue(claims Claims, kind TokenKind) (string, error) {
	key := s.keys[kind]
	now := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Name:      claims.Name,
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   claims.UserID,
		},
	})

	signed, err := token.SignedString(key.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return signed, nil
}

// Verify parses a token of the given kind and returns its claims.
// Expired tokens fail with ErrTokenExpired; anything else with ErrTokenInvalid.
func (s *tokenService) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	key, ok := s.keys[kind]
	if !ok {
		return nil, apperrors.ErrTokenInvalid
	}

	parsed := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, parsed, func(*jwt.Token) (interface{}, error) {
		return key.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Wrap(apperrors.ErrTokenExpired, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrTokenInvalid, err)
	}
	if !token.Valid || parsed.TokenType != string(kind) || parsed.UserID == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	return &Claims{UserID: parsed.UserID, Email: parsed.Email, Name: parsed.Name}, nil
}
