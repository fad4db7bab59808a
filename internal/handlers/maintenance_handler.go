package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kumoney/internal/metrics"
	"kumoney/internal/pagination"
	"kumoney/internal/services"
)

// MaintenanceHandler exposes operator-only repair endpoints.
type MaintenanceHandler struct {
	subscriptionService services.SubscriptionServicer
	auditService        services.AuditServicer
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(subscriptionService services.SubscriptionServicer, auditService services.AuditServicer) *MaintenanceHandler {
	return &MaintenanceHandler{subscriptionService: subscriptionService, auditService: auditService}
}

// ReconcileResponse reports how many subscriptions were provisioned.
type ReconcileResponse struct {
	Created int `json:"created"`
}

// ReconcileSubscriptions provisions a default subscription for every user
// that has none.
// @Summary     Reconcile subscriptions
// @Description Create the default free subscription for users missing one. Requires X-API-Key.
// @Tags        internal
// @Produce     json
// @Param       X-API-Key header string true "Maintenance API key"
// @Success     200 {object} ReconcileResponse "Reconciliation result"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /internal/reconcile [post]
func (h *MaintenanceHandler) ReconcileSubscriptions(c *gin.Context) {
	created, err := h.subscriptionService.ReconcileMissing(c.Request.Context())
	metrics.RecordReconciled(created)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), "", services.AuditActionReconcile, "", c.ClientIP(),
		map[string]interface{}{"created": created})
	c.JSON(http.StatusOK, ReconcileResponse{Created: created})
}

// auditLogQuery is the query string accepted by ListAuditLogs.
type auditLogQuery struct {
	pagination.PageRequest
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Action string `form:"action" binding:"omitempty,max=64"`
}

// ListAuditLogs returns audit entries newest first.
// @Summary     List audit logs
// @Description Paginated audit trail of authentication events. Requires X-API-Key.
// @Tags        internal
// @Produce     json
// @Param       X-API-Key header string true  "Maintenance API key"
// @Param       user_id   query  string false "Filter by user ID"
// @Param       action    query  string false "Filter by action, e.g. LOGIN_FAILED"
// @Param       page      query  int    false "Page number (default 1)"
// @Param       page_size query  int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Paginated audit logs"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /internal/audit-logs [get]
func (h *MaintenanceHandler) ListAuditLogs(c *gin.Context) {
	var query auditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter := services.AuditFilter{UserID: query.UserID, Action: query.Action}
	result, err := h.auditService.List(c.Request.Context(), filter, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
