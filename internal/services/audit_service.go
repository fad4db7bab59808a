package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	apperrors "kumoney/internal/errors"
	"kumoney/internal/logger"
	"kumoney/internal/models"
	"kumoney/internal/pagination"
)

// Audit actions recorded by the auth handlers.
const (
	AuditActionRegister           = "REGISTER"
	AuditActionLogin              = "LOGIN"
	AuditActionLoginFailed        = "LOGIN_FAILED"
	AuditActionVerifyEmail        = "VERIFY_EMAIL"
	AuditActionResendVerification = "RESEND_VERIFICATION"
	AuditActionGoogleLogin        = "GOOGLE_LOGIN"
	AuditActionLogout             = "LOGOUT"
	AuditActionReconcile          = "RECONCILE_SUBSCRIPTIONS"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, userID, action, email, ipAddress string, details map[string]interface{}) {
	var detailsJSON string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log details", "error", err, "action", action)
			detailsJSON = "{}"
		} else {
			detailsJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		Action:    action,
		Email:     email,
		IPAddress: ipAddress,
		Details:   detailsJSON,
	}
	if userID != "" {
		entry.UserID = &userID
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
		)
	}
}

// List returns audit entries newest first.
func (s *auditService) List(ctx context.Context, filter AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.UserID != "" {
		base = base.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		base = base.Where("action = ?", filter.Action)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := base.Order("created_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page, totalItems)
	return &result, nil
}
