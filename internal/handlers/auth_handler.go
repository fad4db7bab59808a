package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kumoney/internal/errors"
	"kumoney/internal/metrics"
	"kumoney/internal/models"
	"kumoney/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService         services.AuthServicer
	subscriptionService services.SubscriptionServicer
	auditService        services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthServicer, subscriptionService services.SubscriptionServicer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		subscriptionService: subscriptionService,
		auditService:        auditService,
	}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyEmailRequest carries the token from the verification link.
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required,notblank"`
}

// ResendVerificationRequest asks for a new verification email.
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// GoogleAuthRequest carries a Google ID token from the client sign-in flow.
type GoogleAuthRequest struct {
	IDToken string `json:"idToken" binding:"required,notblank"`
}

// LogoutRequest carries the refresh token being discarded.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// AuthResponse represents the authentication response with tokens
type AuthResponse struct {
	Message      string       `json:"message"`
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// MeResponse is the authenticated user and their active subscription.
type MeResponse struct {
	User         UserResponse         `json:"user"`
	Subscription *models.Subscription `json:"subscription"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Create an unverified account with a free subscription and send a verification email
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} RegisterResponse "User registered"
// @Failure     400 {object} ErrorResponse "Invalid input or email already registered"
// @Failure     500 {object} ErrorResponse "Verification email could not be sent"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	metrics.RecordAuth("register", err)
	if user != nil {
		h.auditService.Log(c.Request.Context(), user.ID, services.AuditActionRegister, user.Email, c.ClientIP(),
			map[string]interface{}{"email_sent": err == nil})
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		Message: "User registered. Please check your email for verification.",
		User:    newUserResponse(user),
	})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate with email and password and receive an access and refresh token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated"
// @Failure     400 {object} ErrorResponse "Invalid input or invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	metrics.RecordAuth("login", err)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			h.auditService.Log(c.Request.Context(), "", services.AuditActionLoginFailed, models.NormalizeEmail(req.Email), c.ClientIP(), nil)
		}
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), result.User.ID, services.AuditActionLogin, result.User.Email, c.ClientIP(), nil)
	c.JSON(http.StatusOK, newAuthResponse("Login successful", result))
}

// VerifyEmail consumes a verification token
// @Summary     Verify email address
// @Description Mark the account holding this pending token as verified
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body VerifyEmailRequest true "Verification token"
// @Success     200 {object} MessageResponse "Email verified"
// @Failure     400 {object} ErrorResponse "Invalid or expired token"
// @Router      /auth/verify [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	err := h.authService.VerifyEmail(c.Request.Context(), req.Token)
	metrics.RecordAuth("verify_email", err)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "", services.AuditActionVerifyEmail, "", c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Email verified successfully"})
}

// ResendVerification sends a fresh verification email
// @Summary     Resend verification email
// @Description Issue a new verification token for an unverified account and email it
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResendVerificationRequest true "Account email"
// @Success     200 {object} MessageResponse "Verification email sent"
// @Failure     400 {object} ErrorResponse "Already verified"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Verification email could not be sent"
// @Router      /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	err := h.authService.ResendVerification(c.Request.Context(), req.Email)
	metrics.RecordAuth("resend_verification", err)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "", services.AuditActionResendVerification, models.NormalizeEmail(req.Email), c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Verification email sent"})
}

// GoogleAuth signs in with a Google ID token
// @Summary     Sign in with Google
// @Description Verify a Google ID token, creating a verified account on first use
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body GoogleAuthRequest true "Google ID token"
// @Success     200 {object} AuthResponse "User authenticated"
// @Failure     400 {object} ErrorResponse "Invalid Google token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/google [post]
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.authService.GoogleAuth(c.Request.Context(), req.IDToken)
	metrics.RecordAuth("google", err)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), result.User.ID, services.AuditActionGoogleLogin, result.User.Email, c.ClientIP(), nil)
	resp := newAuthResponse("Google authentication successful", result)
	resp.User.Picture = result.Picture
	c.JSON(http.StatusOK, resp)
}

// GetMe returns the authenticated user
// @Summary     Current user
// @Description Return the authenticated user and their active subscription
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MeResponse "Current user"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.authService.GetMe(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscription, err := h.subscriptionService.GetActive(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, apperrors.ErrSubscriptionNotFound) {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: newUserResponse(user), Subscription: subscription})
}

// Logout acknowledges a logout
// @Summary     Logout
// @Description Acknowledge logout. Tokens are stateless and stay valid until they expire.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LogoutRequest false "Refresh token"
// @Success     200 {object} MessageResponse "Logged out"
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	// The body is optional.
	_ = c.ShouldBindJSON(&req)

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "", services.AuditActionLogout, "", c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func newAuthResponse(message string, result *services.AuthResult) AuthResponse {
	return AuthResponse{
		Message:      message,
		User:         newUserResponse(result.User),
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}
}
