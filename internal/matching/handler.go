package matching

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-show/backend/internal/events"
	"github.com/ai-show/backend/internal/models"
	"github.com/ai-show/backend/pkg/queue"
	"github.com/ai-show/backend/pkg/response"
)

// VisibilityRequest is the body for PATCH /events/:id/matches/visibility.
type VisibilityRequest struct {
	ParticipantID        string `json:"participant_id" binding:"required,uuid"`
	MatchedParticipantID string `json:"matched_participant_id" binding:"required,uuid"`
	IsHidden             *bool  `json:"is_hidden" binding:"required"`
}

// Handler handles match HTTP endpoints.
type Handler struct {
	engine    *Engine
	repo      *Repository
	eventRepo *events.Repository
	jobQueue  *queue.Queue
	logger    *zap.Logger
}

// NewHandler creates a matching handler.
func NewHandler(engine *Engine, repo *Repository, eventRepo *events.Repository, jobQueue *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, repo: repo, eventRepo: eventRepo, jobQueue: jobQueue, logger: logger}
}

// Calculate handles POST /events/:id/matches/calculate (admin). Runs the full
// recalculation pass and reports what it produced.
func (h *Handler) Calculate(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	summary, err := h.engine.Recalculate(c.Request.Context(), eventID)
	switch {
	case errors.Is(err, ErrInsufficientParticipants), errors.Is(err, ErrNoAnswers):
		response.UnprocessableEntity(c, err.Error())
		return
	case errors.Is(err, ErrCalculationInProgress):
		response.Conflict(c, err.Error())
		return
	case err != nil:
		h.logger.Error("match calculation failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "match calculation failed: "+err.Error())
		return
	}

	body := gin.H{"summary": summary}
	if summary.Records == 0 {
		body["message"] = "no matches produced"
	}
	response.OK(c, body)
}

// ListVisible handles GET /events/:id/matches. Returns the projected pair list
// for participant and display audiences: empty until the administrator makes
// results visible, then filtered by threshold and hidden flags.
func (h *Handler) ListVisible(c *gin.Context) {
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
	if !e.ResultsVisible {
		response.OK(c, gin.H{"results_visible": false, "pairs": []models.MatchPair{}})
		return
	}

	rows, err := h.repo.ListRowsByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load match results")
		return
	}
	pairs := BuildPairList(rows, e.MatchThreshold)
	response.OK(c, gin.H{"results_visible": true, "pairs": pairs})
}

// ListAll handles GET /events/:id/matches/all (admin). Returns every
// directional row regardless of results_visible, including hidden ones.
func (h *Handler) ListAll(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	rows, err := h.repo.ListRowsByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load match results")
		return
	}
	if rows == nil {
		rows = []models.MatchRow{}
	}
	response.OK(c, rows)
}

// SetVisibility handles PATCH /events/:id/matches/visibility (admin). Toggles
// is_hidden on a pair: the named direction synchronously, the reverse
// direction best-effort with a queued reconciliation as backstop.
func (h *Handler) SetVisibility(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	participantID, _ := uuid.Parse(req.ParticipantID)
	matchedID, _ := uuid.Parse(req.MatchedParticipantID)
	hidden := *req.IsHidden

	affected, err := h.repo.SetHidden(c.Request.Context(), eventID, participantID, matchedID, hidden)
	if err != nil {
		h.logger.Error("set hidden failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to update match visibility")
		return
	}
	if affected == 0 {
		response.NotFound(c, "match row not found")
		return
	}

	// Reverse direction is best effort; the worker realigns it if this misses.
	reverseOK := false
	if n, err := h.repo.SetHidden(c.Request.Context(), eventID, matchedID, participantID, hidden); err == nil && n > 0 {
		reverseOK = true
	}
	if !reverseOK {
		payload := queue.MatchReconcilePayload{
			EventID:              eventID,
			ParticipantID:        participantID,
			MatchedParticipantID: matchedID,
			IsHidden:             hidden,
		}
		if err := h.jobQueue.EnqueueMatchReconcile(c.Request.Context(), payload); err != nil {
			h.logger.Warn("enqueue reconcile failed", zap.Error(err), zap.String("event_id", eventID.String()))
		}
	}

	response.OK(c, gin.H{
		"participant_id":         participantID,
		"matched_participant_id": matchedID,
		"is_hidden":              hidden,
		"reverse_updated":        reverseOK,
	})
}
