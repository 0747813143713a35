package questions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ai-show/backend/internal/middleware"
	"github.com/ai-show/backend/pkg/response"
)

// UpdateRequest is the body for PATCH /questions/:id.
// Edits are allowed even after answers exist; recorded answers keep their
// option indexes, so scoring changes retroactively on the next calculation.
type UpdateRequest struct {
	QuestionText string   `json:"question_text" binding:"required"`
	Options      []string `json:"options" binding:"required,min=2,dive,required"`
	OrderIndex   *int     `json:"order_index"`
}

// Handler handles question HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a questions handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListByEvent handles GET /events/:id/questions.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list questions")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /questions/:id (admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	q, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	scope := c.MustGet(middleware.ContextEventID).(uuid.UUID)
	if q.EventID != scope {
		response.Forbidden(c, "token not valid for this event")
		return
	}

	orderIndex := q.OrderIndex
	if req.OrderIndex != nil {
		orderIndex = *req.OrderIndex
	}
	if err := h.repo.Update(c.Request.Context(), id, req.QuestionText, req.Options, orderIndex); err != nil {
		response.Internal(c, "failed to update question")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load question")
		return
	}
	response.OK(c, updated)
}
