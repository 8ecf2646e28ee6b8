package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prepwise/internal/auth"
	"github.com/mrlokans/prepwise/internal/entities"
)

// AuditHistory reads recorded audit events.
type AuditHistory interface {
	GetEvents(ctx context.Context, userID string, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// AuditController lists the auth events of the signed-in user.
type AuditController struct {
	actions *auth.Actions
	history AuditHistory
	logger  *slog.Logger
}

func NewAuditController(actions *auth.Actions, history AuditHistory, logger *slog.Logger) *AuditController {
	return &AuditController{
		actions: actions,
		history: history,
		logger:  logger,
	}
}

// AuditEventResponse is the public view of an audit event.
type AuditEventResponse struct {
	Action    string `json:"action"`
	Status    string `json:"status"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

// GetAuditEvents returns paginated audit events of the current user
// GET /api/auth/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	user := ac.actions.GetCurrentUser(c.Request.Context(), auth.RequestCookies(c))
	if user == nil {
		respondUnauthorized(c, "not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	offset := (page - 1) * limit

	events, total, err := ac.history.GetEvents(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		ac.logger.Error("failed to load audit events", "uid", user.ID, "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to load audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	items := make([]AuditEventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, AuditEventResponse{
			Action:    event.Action,
			Status:    string(event.Status),
			IPAddress: event.IPAddress,
			UserAgent: event.UserAgent,
			Error:     event.ErrorMsg,
			CreatedAt: event.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       items,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}
