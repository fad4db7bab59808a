package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	apperrors "kumoney/internal/errors"
)

// googleIssuers are the issuer values Google puts in ID tokens.
var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// payloadValidator is satisfied by *idtoken.Validator.
type payloadValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// googleVerifier checks Google ID tokens against the configured OAuth client ID.
type googleVerifier struct {
	clientID  string
	validator payloadValidator
}

// NewGoogleVerifier creates an OAuthVerifier backed by Google's public certs.
func NewGoogleVerifier(ctx context.Context, clientID string) (OAuthVerifier, error) {
	validator, err := idtoken.NewValidator(ctx, option.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	if err != nil {
		return nil, fmt.Errorf("create google token validator: %w", err)
	}
	return &googleVerifier{clientID: clientID, validator: validator}, nil
}

// Verify validates signature, audience, expiry and issuer, and extracts the
// identity claims. Every failure maps to ErrOAuthInvalid.
func (v *googleVerifier) Verify(ctx context.Context, idToken string) (*OAuthIdentity, error) {
	if v.clientID == "" {
		return nil, apperrors.Wrap(apperrors.ErrOAuthInvalid, fmt.Errorf("google client id is not configured"))
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, apperrors.ErrOAuthInvalid
	}

	payload, err := v.validator.Validate(ctx, idToken, v.clientID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrOAuthInvalid, err)
	}
	if !googleIssuers[payload.Issuer] {
		return nil, apperrors.Wrap(apperrors.ErrOAuthInvalid, fmt.Errorf("unexpected issuer %q", payload.Issuer))
	}
	if payload.Audience != v.clientID {
		return nil, apperrors.Wrap(apperrors.ErrOAuthInvalid, fmt.Errorf("unexpected audience %q", payload.Audience))
	}

	email := claimString(payload.Claims, "email")
	if email == "" {
		return nil, apperrors.Wrap(apperrors.ErrOAuthInvalid, fmt.Errorf("token has no email claim"))
	}
	if !claimTrue(payload.Claims, "email_verified") {
		return nil, apperrors.Wrap(apperrors.ErrOAuthInvalid, fmt.Errorf("google email is not verified"))
	}

	return &OAuthIdentity{
		Email:   email,
		Name:    claimString(payload.Claims, "name"),
		Picture: claimString(payload.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}

// claimTrue accepts both the boolean and the string form Google has used.
func claimTrue(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
