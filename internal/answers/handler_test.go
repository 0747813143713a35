package answers

import (
	"testing"

	"github.com/google/uuid"

	"github.com/ai-show/backend/internal/models"
)

func TestDistinctQuestionsCountsDuplicatesOnce(t *testing.T) {
	pid := uuid.New()
	q1, q2 := uuid.New(), uuid.New()
	list := []models.Answer{
		{ParticipantID: pid, QuestionID: q1, SelectedOptionIndex: 0},
		{ParticipantID: pid, QuestionID: q1, SelectedOptionIndex: 2},
		{ParticipantID: pid, QuestionID: q2, SelectedOptionIndex: 1},
	}
	if got := distinctQuestions(list); got != 2 {
		t.Fatalf("distinctQuestions = %d, want 2 (resubmitted answers count once)", got)
	}
}

func TestDistinctQuestionsEmpty(t *testing.T) {
	if got := distinctQuestions(nil); got != 0 {
		t.Fatalf("distinctQuestions = %d, want 0", got)
	}
}
