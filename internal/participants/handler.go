package participants

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-show/backend/internal/events"
	"github.com/ai-show/backend/internal/models"
	"github.com/ai-show/backend/pkg/response"
)

// JoinRequest is the body for POST /events/:id/participants.
type JoinRequest struct {
	Name            string  `json:"name" binding:"required"`
	ProfileImageURL *string `json:"profile_image_url"`
	Gender          *string `json:"gender"`
}

// Handler handles participant HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	logger    *zap.Logger
}

// NewHandler creates a participants handler.
func NewHandler(repo *Repository, eventRepo *events.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, eventRepo: eventRepo, logger: logger}
}

// Join handles POST /events/:id/participants. Creates a participant for an
// active event.
func (h *Handler) Join(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if !e.IsActive || time.Now().After(e.EndsAt) {
		response.Forbidden(c, "event has ended")
		return
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Gender != nil && !models.ValidGender(*req.Gender) {
		response.BadRequest(c, "gender must be male, female, or other")
		return
	}

	p := &models.Participant{
		EventID:         eventID,
		Name:            req.Name,
		ProfileImageURL: req.ProfileImageURL,
		Gender:          req.Gender,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("create participant failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to join event")
		return
	}
	response.Created(c, p)
}

// ListByEvent handles GET /events/:id/participants.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list participants")
		return
	}
	response.OK(c, list)
}
