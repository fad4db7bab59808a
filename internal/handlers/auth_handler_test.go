package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "kumoney/internal/errors"
	"kumoney/internal/middleware"
	"kumoney/internal/models"
	"kumoney/internal/pagination"
	"kumoney/internal/services"
	"kumoney/internal/validator"
)

// --- mock services ---

type mockAuthService struct {
	registerFn           func(ctx context.Context, email, name, password string) (*models.User, error)
	loginFn              func(ctx context.Context, email, password string) (*services.AuthResult, error)
	getMeFn              func(ctx context.Context, userID string) (*models.User, error)
	verifyEmailFn        func(ctx context.Context, token string) error
	resendVerificationFn func(ctx context.Context, email string) error
	googleAuthFn         func(ctx context.Context, idToken string) (*services.AuthResult, error)
	logoutFn             func(ctx context.Context, refreshToken string) error
}

func (m *mockAuthService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, name, password)
	}
	return &models.User{Email: email, Name: name}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return &services.AuthResult{User: &models.User{Email: email}}, nil
}

func (m *mockAuthService) GetMe(ctx context.Context, userID string) (*models.User, error) {
	if m.getMeFn != nil {
		return m.getMeFn(ctx, userID)
	}
	return &models.User{Base: models.Base{ID: userID}}, nil
}

func (m *mockAuthService) VerifyEmail(ctx context.Context, token string) error {
	if m.verifyEmailFn != nil {
		return m.verifyEmailFn(ctx, token)
	}
	return nil
}

func (m *mockAuthService) ResendVerification(ctx context.Context, email string) error {
	if m.resendVerificationFn != nil {
		return m.resendVerificationFn(ctx, email)
	}
	return nil
}

func (m *mockAuthService) GoogleAuth(ctx context.Context, idToken string) (*services.AuthResult, error) {
	if m.googleAuthFn != nil {
		return m.googleAuthFn(ctx, idToken)
	}
	return &services.AuthResult{User: &models.User{}}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, refreshToken string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, refreshToken)
	}
	return nil
}

type mockSubscriptionService struct {
	getActiveFn        func(ctx context.Context, userID string) (*models.Subscription, error)
	reconcileMissingFn func(ctx context.Context) (int, error)
}

func (m *mockSubscriptionService) CreateDefault(_ *gorm.DB, _ *models.User) (*models.Subscription, error) {
	return &models.Subscription{}, nil
}

func (m *mockSubscriptionService) EnsureDefault(_ *gorm.DB, _ *models.User) (*models.Subscription, bool, error) {
	return &models.Subscription{}, false, nil
}

func (m *mockSubscriptionService) GetActive(ctx context.Context, userID string) (*models.Subscription, error) {
	if m.getActiveFn != nil {
		return m.getActiveFn(ctx, userID)
	}
	return nil, apperrors.ErrSubscriptionNotFound
}

func (m *mockSubscriptionService) ReconcileMissing(ctx context.Context) (int, error) {
	if m.reconcileMissingFn != nil {
		return m.reconcileMissingFn(ctx)
	}
	return 0, nil
}

type auditEntry struct {
	userID string
	action string
	email  string
}

type mockAuditService struct {
	entries []auditEntry
	listFn  func(filter services.AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}

func (m *mockAuditService) Log(_ context.Context, userID, action, email, _ string, _ map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{userID: userID, action: action, email: email})
}

func (m *mockAuditService) List(_ context.Context, filter services.AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	if m.listFn != nil {
		return m.listFn(filter, page)
	}
	result := pagination.NewPageResponse[models.AuditLog](nil, page, 0)
	return &result, nil
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.POST("/verify", handler.VerifyEmail)
	auth.POST("/resend-verification", handler.ResendVerification)
	auth.POST("/google", handler.GoogleAuth)
	auth.POST("/logout", handler.Logout)
	auth.GET("/me", injectUserID("0192f1c8-cccc-7000-8000-000000000001"), handler.GetMe)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func newTestAuthHandler(authSvc *mockAuthService, audit *mockAuditService) *AuthHandler {
	return NewAuthHandler(authSvc, &mockSubscriptionService{}, audit)
}

func testAuthResult(email string) *services.AuthResult {
	return &services.AuthResult{
		User: &models.User{
			Base:     models.Base{ID: "0192f1c8-cccc-7000-8000-000000000001"},
			Email:    email,
			Name:     "Rina",
			Status:   models.TierFree,
			Verified: true,
		},
		Tokens: services.TokenPair{AccessToken: "access.jwt", RefreshToken: "refresh.jwt"},
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		authSvc := &mockAuthService{
			registerFn: func(_ context.Context, email, name, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: "u-1"}, Email: email, Name: name, Status: models.TierFree}, nil
			},
		}
		r := setupAuthRouter(newTestAuthHandler(authSvc, audit))

		rec := doRequest(r, "POST", "/auth/register",
			`{"name":"Rina","email":"rina@example.com","password":"password123"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["message"] == "" {
			t.Error("expected a message")
		}
		user := result["user"].(map[string]interface{})
		if user["email"] != "rina@example.com" || user["status"] != "free" || user["verified"] != false {
			t.Errorf("unexpected user: %v", user)
		}
		if _, leaked := user["password_hash"]; leaked {
			t.Error("password hash must not be serialized")
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionRegister {
			t.Errorf("expected one register audit entry, got %v", audit.entries)
		}
	})

	validationCases := []struct {
		name string
		body string
	}{
		{name: "missing email", body: `{"name":"Rina","password":"password123"}`},
		{name: "invalid email format", body: `{"name":"Rina","email":"not-an-email","password":"password123"}`},
		{name: "short password", body: `{"name":"Rina","email":"rina@example.com","password":"short"}`},
		{name: "blank name", body: `{"name":"   ","email":"rina@example.com","password":"password123"}`},
		{name: "malformed json", body: `{"email":`},
	}
	for _, tc := range validationCases {
		t.Run("returns 400 on "+tc.name, func(t *testing.T) {
			called := false
			authSvc := &mockAuthService{
				registerFn: func(_ context.Context, _, _, _ string) (*models.User, error) {
					called = true
					return nil, nil
				},
			}
			r := setupAuthRouter(newTestAuthHandler(authSvc, &mockAuditService{}))

			rec := doRequest(r, "POST", "/auth/register", tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
			if called {
				t.Error("service should not be called on invalid input")
			}
		})
	}

	t.Run("returns 400 on duplicate email", func(t *testing.T) {
		authSvc := &mockAuthService{
			registerFn: func(_ context.Context, _, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthRouter(newTestAuthHandler(authSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"name":"Dup","email":"dup@example.com","password":"password123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})

	t.Run("returns 500 when the verification email fails", func(t *testing.T) {
		audit := &mockAuditService{}
		authSvc := &mockAuthService{
			registerFn: func(_ context.Context, email, _, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: "u-2"}, Email: email},
					apperrors.Wrap(apperrors.ErrEmailDelivery, errors.New("smtp: 421 service not available"))
			},
		}
		r := setupAuthRouter(newTestAuthHandler(authSvc, audit))

		rec := doRequest(r, "POST", "/auth/register", `{"name":"Ana","email":"ana@example.com","password":"password123"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "EMAIL_DELIVERY_FAILED")
		if strings.Contains(rec.Body.String(), "smtp") {
			t.Error("internal cause leaked to client")
		}
		if len(audit.entries) != 1 {
			t.Errorf("partial registration should still be audited, got %v", audit.entries)
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns tokens on success", func(t *testing.T) {
		authSvc := &mockAuthService{
			loginFn: func(_ context.Context, email, _ string) (*services.AuthResult, error) {
				return testAuthResult(email), nil
			},
		}
		r := setupAuthRouter(newTestAuthHandler(authSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"rina@example.com","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["accessToken"] != "access.jwt" || result["refreshToken"] != "refresh.jwt" {
			t.Errorf("unexpected tokens: %v", result)
		}
	})

	t.Run("returns 400 with a generic message on bad credentials", func(t *testing.T) {
		audit := &mockAuditService{}
		authSvc := &mockAuthService{
			loginFn: func(_ context.Context, _, _ string) (*services.AuthResult, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(newTestAuthHandler(authSvc, audit))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"Rina@Example.com","password":"wrong"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "INVALID_CREDENTIALS")
		if msg := result["error"].(map[string]interface{})["message"]; msg != "Invalid credentials" {
			t.Errorf("unexpected message %v", msg)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionLoginFailed || audit.entries[0].email != "rina@example.com" {
			t.Errorf("expected a failed-login audit entry, got %v", audit.entries)
		}
	})
}

func TestAuthHandler_VerifyEmail(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "success", body: `{"token":"abc"}`, wantStatus: http.StatusOK},
		{name: "missing token", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_INPUT"},
		{name: "expired token", body: `{"token":"abc"}`, svcErr: apperrors.ErrInvalidOrExpiredToken, wantStatus: http.StatusBadRequest, wantCode: "INVALID_OR_EXPIRED_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authSvc := &mockAuthService{
				verifyEmailFn: func(_ context.Context, _ string) error { return tt.svcErr },
			}
			r := setupAuthRouter(newTestAuthHandler(authSvc, &mockAuditService{}))

			rec := doRequest(r, "POST", "/auth/verify", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantCode != "" {
				assertErrorCode(t, parseJSON(t, rec), tt.wantCode)
			}
		})
	}
}

func TestAuthHandler_ResendVerification(t *testing.T) {
	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "unknown user", svcErr: apperrors.ErrUserNotFound, wantStatus: http.StatusNotFound, wantCode: "USER_NOT_FOUND"},
		{name: "already verified", svcErr: apperrors.ErrAlreadyVerified, wantStatus: http.StatusBadRequest, wantCode: "ALREADY_VERIFIED"},
		{name: "email down", svcErr: apperrors.ErrEmailDelivery, wantStatus: http.StatusInternalServerError, wantCode: "EMAIL_DELIVERY_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authSvc := &mockAuthService{
				resendVerificationFn: func(_ context.Context, _ string) error { return tt.svcErr },
			}
			r := setupAuthRouter(newTestAuthHandler(authSvc, &mockAuditService{}))

			rec := doRequest(r, "POST", "/auth/resend-verification", `{"email":"rina@example.com"}`)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantCode != "" {
				assertErrorCode(t, parseJSON(t, rec), tt.wantCode)
			}
		})
	}
}

func TestAuthHandler_GoogleAuth(t *testing.T) {
	t.Run("returns tokens and picture", func(t *testing.T) {
		var gotToken string
		authSvc := &mockAuthService{
			googleAuthFn: func(_ context.Context, idToken string) (*services.AuthResult, error) {
				gotToken = idToken
				res := testAuthResult("rina@gmail.com")
				res.Picture = "https://lh3.googleusercontent.com/a/rina"
				return res, nil
			},
		}
		r := setupAuthRouter(newTestAuthHandler(authSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/google", `{"idToken":"google.id.token"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotToken != "google.id.token" {
			t.Errorf("id token not passed through, got %q", gotToken)
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["picture"] != "https://lh3.googleusercontent.com/a/rina" {
			t.Errorf("expected picture in user, got %v", user)
		}
	})

	t.Run("returns 400 on invalid token", func(t *testing.T) {
		authSvc := &mockAuthService{
			googleAuthFn: func(_ context.Context, _ string) (*services.AuthResult, error) {
				return nil, apperrors.ErrOAuthInvalid
			},
		}
		r := setupAuthRouter(newTestAuthHandler(authSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/google", `{"idToken":"forged"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "OAUTH_INVALID")
	})

	t.Run("returns 400 without a token", func(t *testing.T) {
		r := setupAuthRouter(newTestAuthHandler(&mockAuthService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/google", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestAuthHandler_GetMe(t *testing.T) {
	t.Run("returns user and subscription", func(t *testing.T) {
		subs := &mockSubscriptionService{
			getActiveFn: func(_ context.Context, userID string) (*models.Subscription, error) {
				return &models.Subscription{
					Owner:         models.SubscriptionOwner{ID: userID},
					Tier:          models.TierFree,
					IsActive:      true,
					LimitCategory: 5,
				}, nil
			},
		}
		handler := NewAuthHandler(&mockAuthService{}, subs, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "GET", "/auth/me", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["user"].(map[string]interface{})["id"] != "0192f1c8-cccc-7000-8000-000000000001" {
			t.Errorf("unexpected user: %v", result["user"])
		}
		sub := result["subscription"].(map[string]interface{})
		if sub["tier"] != "free" || sub["limit_category"] != float64(5) {
			t.Errorf("unexpected subscription: %v", sub)
		}
	})

	t.Run("returns null subscription when none is active", func(t *testing.T) {
		r := setupAuthRouter(newTestAuthHandler(&mockAuthService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/auth/me", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if sub, ok := parseJSON(t, rec)["subscription"]; !ok || sub != nil {
			t.Errorf("expected null subscription, got %v", sub)
		}
	})

	t.Run("returns 404 when user is gone", func(t *testing.T) {
		authSvc := &mockAuthService{
			getMeFn: func(_ context.Context, _ string) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		r := setupAuthRouter(newTestAuthHandler(authSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/auth/me", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_FOUND")
	})

	t.Run("returns 401 without user in context", func(t *testing.T) {
		handler := newTestAuthHandler(&mockAuthService{}, &mockAuditService{})
		r := gin.New()
		r.GET("/auth/me", handler.GetMe)

		rec := doRequest(r, "GET", "/auth/me", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	var got string
	authSvc := &mockAuthService{
		logoutFn: func(_ context.Context, refreshToken string) error {
			got = refreshToken
			return nil
		},
	}
	r := setupAuthRouter(newTestAuthHandler(authSvc, &mockAuditService{}))

	rec := doRequest(r, "POST", "/auth/logout", `{"refreshToken":"refresh.jwt"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got != "refresh.jwt" {
		t.Errorf("refresh token not passed through, got %q", got)
	}

	rec = doRequest(r, "POST", "/auth/logout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without body, got %d", rec.Code)
	}
}
