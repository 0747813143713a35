package events

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-show/backend/config"
	"github.com/ai-show/backend/internal/auth"
	"github.com/ai-show/backend/internal/models"
	"github.com/ai-show/backend/pkg/response"
	"github.com/ai-show/backend/pkg/utils"
)

const (
	accessCodeLength = 8
	adminCodeLength  = 12
)

// QuestionInput is one question in the event creation body.
type QuestionInput struct {
	QuestionText string   `json:"question_text" binding:"required"`
	Options      []string `json:"options" binding:"required,min=2,dive,required"`
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Name      string          `json:"name" binding:"required"`
	EndsAt    *string         `json:"ends_at"` // RFC3339; defaults to now + configured duration
	Questions []QuestionInput `json:"questions" binding:"required,min=1"`
}

// JoinRequest is the body for POST /events/join.
type JoinRequest struct {
	AccessCode string `json:"access_code" binding:"required"`
}

// AdminLoginRequest is the body for POST /events/:id/admin/login.
type AdminLoginRequest struct {
	AdminCode string `json:"admin_code" binding:"required"`
}

// UpdateRequest is the body for PATCH /events/:id. AdminCode rotates the
// event's admin secret; existing tokens stay valid until they expire.
type UpdateRequest struct {
	Name           *string  `json:"name"`
	ResultsVisible *bool    `json:"results_visible"`
	MatchThreshold *float64 `json:"match_threshold"`
	EndsAt         *string  `json:"ends_at"`
	AdminCode      *string  `json:"admin_code"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *auth.JWTService
	cfg    config.EventConfig
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, jwt *auth.JWTService, cfg config.EventConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, cfg: cfg, logger: logger}
}

// Create handles POST /events. Creates the event and its questions in one
// transaction and returns the generated access and admin codes. The admin code
// is only returned here; afterwards only its hash is stored.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	endsAt := time.Now().Add(time.Duration(h.cfg.DefaultDurationHours) * time.Hour)
	if req.EndsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = t
	}

	accessCode, err := utils.GenerateCode(accessCodeLength)
	if err != nil {
		response.Internal(c, "failed to generate access code")
		return
	}
	adminCode, err := utils.GenerateCode(adminCodeLength)
	if err != nil {
		response.Internal(c, "failed to generate admin code")
		return
	}
	adminHash, err := utils.HashCode(adminCode)
	if err != nil {
		response.Internal(c, "failed to hash admin code")
		return
	}

	e := &models.Event{
		Name:           req.Name,
		AccessCode:     accessCode,
		AdminCodeHash:  adminHash,
		MatchThreshold: h.cfg.DefaultThreshold,
		EndsAt:         endsAt,
	}
	questions := make([]models.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		questions = append(questions, models.Question{
			QuestionText: q.QuestionText,
			Options:      q.Options,
			OrderIndex:   i,
		})
	}

	if err := h.repo.CreateWithQuestions(c.Request.Context(), e, questions); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}

	response.Created(c, gin.H{
		"event":       e,
		"questions":   questions,
		"access_code": accessCode,
		"admin_code":  adminCode,
	})
}

// Join handles POST /events/join. Looks up an active event by access code.
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "access_code required")
		return
	}

	e, err := h.repo.GetByAccessCode(c.Request.Context(), req.AccessCode)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if !e.IsActive || time.Now().After(e.EndsAt) {
		response.Forbidden(c, "event has ended")
		return
	}
	response.OK(c, e.ToPublic())
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e.ToPublic())
}

// AdminLogin handles POST /events/:id/admin/login. Exchanges the event's admin
// code for a JWT scoped to that event.
func (h *Handler) AdminLogin(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "admin_code required")
		return
	}

	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if !utils.CheckCode(req.AdminCode, e.AdminCodeHash) {
		response.Unauthorized(c, "invalid admin code")
		return
	}

	token, err := h.jwt.Generate(e.ID)
	if err != nil {
		h.logger.Error("generate admin token failed", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, gin.H{"token": token, "event": e})
}

// Update handles PATCH /events/:id (admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.MatchThreshold != nil && (*req.MatchThreshold < 0 || *req.MatchThreshold > 100) {
		response.BadRequest(c, "match_threshold must be between 0 and 100")
		return
	}
	if req.AdminCode != nil && len(*req.AdminCode) < adminCodeLength {
		response.BadRequest(c, "admin_code too short")
		return
	}
	adminHash, err := hashedAdminCode(req.AdminCode)
	if err != nil {
		response.Internal(c, "failed to hash admin code")
		return
	}
	var endsAt *time.Time
	if req.EndsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = &t
	}

	if err := h.repo.Update(c.Request.Context(), id, req.Name, req.ResultsVisible, req.MatchThreshold, endsAt, adminHash); err != nil {
		h.logger.Error("update event failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to update event")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// hashedAdminCode bcrypt-hashes a replacement admin code; nil stays nil so the
// stored hash is left untouched.
func hashedAdminCode(code *string) (*string, error) {
	if code == nil {
		return nil, nil
	}
	hash, err := utils.HashCode(*code)
	if err != nil {
		return nil, err
	}
	return &hash, nil
}

// Stats handles GET /events/:id/stats (admin). Returns participant and answer
// counts, the numbers the admin view polls while the survey is open.
func (h *Handler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	participants, answers, err := h.repo.Stats(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load stats")
		return
	}
	response.OK(c, gin.H{"participant_count": participants, "answer_count": answers})
}
