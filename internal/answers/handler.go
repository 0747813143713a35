package answers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-show/backend/internal/models"
	"github.com/ai-show/backend/internal/participants"
	"github.com/ai-show/backend/internal/questions"
	"github.com/ai-show/backend/pkg/response"
)

// AnswerInput is one answer in the submission body.
type AnswerInput struct {
	QuestionID          string `json:"question_id" binding:"required,uuid"`
	SelectedOptionIndex *int   `json:"selected_option_index" binding:"required"`
}

// SubmitRequest is the body for POST /participants/:id/answers.
type SubmitRequest struct {
	Answers []AnswerInput `json:"answers" binding:"required,min=1"`
}

// Handler handles answer HTTP endpoints.
type Handler struct {
	repo            *Repository
	participantRepo *participants.Repository
	questionRepo    *questions.Repository
	logger          *zap.Logger
}

// NewHandler creates an answers handler.
func NewHandler(repo *Repository, participantRepo *participants.Repository, questionRepo *questions.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, participantRepo: participantRepo, questionRepo: questionRepo, logger: logger}
}

// Submit handles POST /participants/:id/answers. Records the participant's
// selected option for each question. Option indexes are validated against the
// question's option list.
func (h *Handler) Submit(c *gin.Context) {
	participantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	p, err := h.participantRepo.GetByID(c.Request.Context(), participantID)
	if err != nil {
		response.NotFound(c, "participant not found")
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	eventQuestions, err := h.questionRepo.ListByEvent(c.Request.Context(), p.EventID)
	if err != nil {
		response.Internal(c, "failed to load questions")
		return
	}
	optionCounts := make(map[uuid.UUID]int, len(eventQuestions))
	for _, q := range eventQuestions {
		optionCounts[q.ID] = len(q.Options)
	}

	list := make([]models.Answer, 0, len(req.Answers))
	for _, in := range req.Answers {
		qid, err := uuid.Parse(in.QuestionID)
		if err != nil {
			response.BadRequest(c, "invalid question_id")
			return
		}
		count, ok := optionCounts[qid]
		if !ok {
			response.BadRequest(c, "question does not belong to this event")
			return
		}
		idx := *in.SelectedOptionIndex
		if idx < 0 || idx >= count {
			response.BadRequest(c, "selected_option_index out of range")
			return
		}
		list = append(list, models.Answer{
			ParticipantID:       participantID,
			QuestionID:          qid,
			SelectedOptionIndex: idx,
		})
	}

	if err := h.repo.CreateBatch(c.Request.Context(), list); err != nil {
		h.logger.Error("submit answers failed", zap.Error(err), zap.String("participant_id", participantID.String()))
		response.Internal(c, "failed to record answers")
		return
	}
	response.Created(c, gin.H{"participant_id": participantID, "recorded": len(list)})
}

// ListByParticipant handles GET /participants/:id/answers. Returns the
// participant's recorded answers with completion state, so a rejoining
// participant can resume the survey where they left off.
func (h *Handler) ListByParticipant(c *gin.Context) {
	participantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	p, err := h.participantRepo.GetByID(c.Request.Context(), participantID)
	if err != nil {
		response.NotFound(c, "participant not found")
		return
	}
	questionCount, err := h.questionRepo.CountByEvent(c.Request.Context(), p.EventID)
	if err != nil {
		response.Internal(c, "failed to count questions")
		return
	}
	list, err := h.repo.ListByParticipants(c.Request.Context(), []uuid.UUID{participantID})
	if err != nil {
		response.Internal(c, "failed to load answers")
		return
	}
	if list == nil {
		list = []models.Answer{}
	}

	answered := distinctQuestions(list)
	response.OK(c, gin.H{
		"answers":        list,
		"answered_count": answered,
		"question_count": questionCount,
		"completed":      questionCount > 0 && answered >= questionCount,
	})
}

// distinctQuestions counts the questions covered by a participant's answers;
// duplicate answers for a question count once.
func distinctQuestions(list []models.Answer) int {
	seen := make(map[uuid.UUID]struct{}, len(list))
	for _, a := range list {
		seen[a.QuestionID] = struct{}{}
	}
	return len(seen)
}

// Progress handles GET /events/:id/answers/progress. Returns each
// participant's answered count against the event's question count; the
// big-screen display uses this to announce who completed the survey.
func (h *Handler) Progress(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	questionCount, err := h.questionRepo.CountByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to count questions")
		return
	}
	list, err := h.repo.ProgressByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load progress")
		return
	}
	for i := range list {
		list[i].QuestionCount = questionCount
		list[i].Completed = questionCount > 0 && list[i].AnsweredCount >= questionCount
	}
	response.OK(c, list)
}
