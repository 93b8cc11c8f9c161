package services

import (
	"testing"

	"github.com/soaringjerry/npsdesk/internal/models"
	"github.com/stretchr/testify/assert"
)

func questionIDs(qs []models.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func TestVisibleQuestionsSelectedAssignment(t *testing.T) {
	qs := []models.Question{
		{ID: "q1", IsActive: true, AssignedTo: models.AssignSelected, AssignedUserIDs: []string{"u2"}},
	}
	assert.Equal(t, []string{"q1"}, questionIDs(VisibleQuestions(models.User{ID: "u2"}, qs)))
	assert.Empty(t, VisibleQuestions(models.User{ID: "u3"}, qs))
}

func TestVisibleQuestionsExcludesInactive(t *testing.T) {
	u := models.User{ID: "u2"}
	qs := []models.Question{
		{ID: "q1", IsActive: false, AssignedTo: models.AssignAll},
		{ID: "q2", IsActive: false, AssignedTo: models.AssignSelected, AssignedUserIDs: []string{"u2"}},
		{ID: "q3", IsActive: true, AssignedTo: models.AssignAll},
	}
	assert.Equal(t, []string{"q3"}, questionIDs(VisibleQuestions(u, qs)))
}

func TestVisibleQuestionsKeepsInputOrder(t *testing.T) {
	u := models.User{ID: "u1"}
	qs := []models.Question{
		{ID: "q9", IsActive: true, AssignedTo: models.AssignAll},
		{ID: "q1", IsActive: true, AssignedTo: models.AssignSelected, AssignedUserIDs: []string{"u1"}},
		{ID: "q5", IsActive: true, AssignedTo: models.AssignAll},
	}
	assert.Equal(t, []string{"q9", "q1", "q5"}, questionIDs(VisibleQuestions(u, qs)))
}

func TestPendingQuestions(t *testing.T) {
	u := models.User{ID: "u1"}
	qs := []models.Question{
		{ID: "q1", IsActive: true, AssignedTo: models.AssignAll},
		{ID: "q2", IsActive: true, AssignedTo: models.AssignAll},
		{ID: "q3", IsActive: false, AssignedTo: models.AssignAll},
	}
	rs := []models.Response{
		{QuestionID: "q1", UserID: "u1"},
		{QuestionID: "q2", UserID: "someone-else"},
		{QuestionID: "q3", UserID: "u1"},
	}
	assert.Equal(t, []string{"q2"}, questionIDs(PendingQuestions(u, qs, rs)))
	assert.Len(t, qs, 3, "input must not be modified")
}
