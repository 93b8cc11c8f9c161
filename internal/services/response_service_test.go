package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/npsdesk/internal/models"
)

type responseStubStore struct {
	questions []models.Question
	responses []models.Response
	failAdd   error
	adds      int
}

func (s *responseStubStore) GetQuestion(id string) *models.Question {
	for _, q := range s.questions {
		if q.ID == id {
			copy := q
			return &copy
		}
	}
	return nil
}

func (s *responseStubStore) ListQuestions(company string) []models.Question {
	out := []models.Question{}
	for _, q := range s.questions {
		if q.Company == company {
			out = append(out, q)
		}
	}
	return out
}

func (s *responseStubStore) ListResponses(company string) []models.Response {
	out := []models.Response{}
	for _, r := range s.responses {
		if r.Company == company {
			out = append(out, r)
		}
	}
	return out
}

func (s *responseStubStore) AddResponses(_ context.Context, drafts []models.ResponseDraft) ([]models.Response, error) {
	s.adds++
	if s.failAdd != nil {
		return nil, s.failAdd
	}
	out := make([]models.Response, 0, len(drafts))
	for _, d := range drafts {
		n := len(s.responses) + 1
		r := models.Response{
			ID: fmt.Sprintf("r%d", n), QuestionID: d.QuestionID, UserID: d.UserID, UserName: d.UserName,
			Rating: d.Rating, Comment: d.Comment, Company: d.Company,
			CreatedAt: time.Date(2024, 1, 1, 0, n, 0, 0, time.UTC),
		}
		s.responses = append(s.responses, r)
		out = append(out, r)
	}
	return out, nil
}

func newResponseFixture() *responseStubStore {
	return &responseStubStore{questions: []models.Question{
		{ID: "q1", QuestionID: "Q001", IsActive: true, ScaleType: models.ScaleNumeric, AssignedTo: models.AssignAll, Company: "Acme"},
		{ID: "q2", QuestionID: "Q002", IsActive: true, ScaleType: models.ScaleEmoji5, AssignedTo: models.AssignSelected, AssignedUserIDs: []string{"2"}, Company: "Acme"},
		{ID: "q3", QuestionID: "Q003", IsActive: true, ScaleType: models.ScaleEmoji3, AssignedTo: models.AssignSelected, AssignedUserIDs: []string{"9"}, Company: "Acme"},
		{ID: "q4", QuestionID: "Q004", IsActive: false, ScaleType: models.ScaleEmoji3, AssignedTo: models.AssignAll, Company: "Acme"},
		{ID: "q5", QuestionID: "Q001", IsActive: true, ScaleType: models.ScaleNumeric, AssignedTo: models.AssignAll, Company: "Other"},
	}}
}

var participant = &models.User{ID: "2", Name: "Regular User", Role: models.RoleUser, Company: "Acme"}

func TestSubmitStoresResponse(t *testing.T) {
	store := newResponseFixture()
	svc := NewResponseService(store)
	r, err := svc.Submit(context.Background(), participant, Answer{QuestionID: "q1", Rating: models.Numeric(9), Comment: "  great  "})
	require.NoError(t, err)
	assert.Equal(t, "q1", r.QuestionID)
	assert.Equal(t, "Regular User", r.UserName)
	assert.Equal(t, "Acme", r.Company)
	assert.Equal(t, "great", r.Comment)
	assert.NotEmpty(t, r.ID)
}

func TestSubmitRejections(t *testing.T) {
	cases := []struct {
		name string
		ans  Answer
		code ErrorCode
	}{
		{"missing question", Answer{QuestionID: "nope", Rating: models.Numeric(1)}, ErrorNotFound},
		{"other company", Answer{QuestionID: "q5", Rating: models.Numeric(1)}, ErrorNotFound},
		{"not assigned", Answer{QuestionID: "q3", Rating: models.Emoji3(models.LabelGood)}, ErrorForbidden},
		{"inactive", Answer{QuestionID: "q4", Rating: models.Emoji3(models.LabelGood)}, ErrorForbidden},
		{"no rating", Answer{QuestionID: "q1"}, ErrorInvalid},
		{"out of range", Answer{QuestionID: "q1", Rating: models.Numeric(11)}, ErrorInvalid},
		{"wrong scale", Answer{QuestionID: "q1", Rating: models.Emoji3(models.LabelGood)}, ErrorInvalid},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			store := newResponseFixture()
			_, err := NewResponseService(store).Submit(context.Background(), participant, c.ans)
			assert.True(t, IsCode(err, c.code), "got %v", err)
			assert.Zero(t, store.adds, "nothing persisted")
		})
	}

	_, err := NewResponseService(newResponseFixture()).Submit(context.Background(), participant, Answer{QuestionID: "q1"})
	assert.Same(t, ErrRatingRequired, err)
	_, err = NewResponseService(newResponseFixture()).Submit(context.Background(), participant,
		Answer{QuestionID: "q1", Rating: models.Emoji5(models.LabelGood)})
	assert.Same(t, ErrScaleMismatch, err)
	_, err = NewResponseService(newResponseFixture()).Submit(context.Background(), nil, Answer{QuestionID: "q1"})
	assert.True(t, IsCode(err, ErrorForbidden))
}

func TestSubmitPropagatesStoreFailure(t *testing.T) {
	store := newResponseFixture()
	store.failAdd = errors.New("disk full")
	_, err := NewResponseService(store).Submit(context.Background(), participant, Answer{QuestionID: "q1", Rating: models.Numeric(5)})
	assert.EqualError(t, err, "disk full")
}

func TestSubmitBatchAllOrNothing(t *testing.T) {
	ctx := context.Background()

	store := newResponseFixture()
	svc := NewResponseService(store)
	_, err := svc.SubmitBatch(ctx, participant, []Answer{{QuestionID: "q1", Rating: models.Numeric(8)}})
	assert.True(t, IsCode(err, ErrorInvalid), "missing q2: %v", err)

	_, err = svc.SubmitBatch(ctx, participant, []Answer{
		{QuestionID: "q1", Rating: models.Numeric(8)},
		{QuestionID: "q2", Rating: models.Emoji5(models.LabelGood)},
		{QuestionID: "q1", Rating: models.Numeric(2)},
	})
	assert.True(t, IsCode(err, ErrorInvalid), "duplicate: %v", err)

	_, err = svc.SubmitBatch(ctx, participant, []Answer{
		{QuestionID: "q1", Rating: models.Numeric(8)},
		{QuestionID: "q2", Rating: models.Emoji5(models.LabelGood)},
		{QuestionID: "q3", Rating: models.Emoji3(models.LabelGood)},
	})
	assert.True(t, IsCode(err, ErrorForbidden), "unassigned: %v", err)

	_, err = svc.SubmitBatch(ctx, participant, []Answer{
		{QuestionID: "q1", Rating: models.Numeric(8)},
		{QuestionID: "q2", Rating: models.Emoji5("meh")},
	})
	assert.True(t, IsCode(err, ErrorInvalid), "bad rating: %v", err)
	assert.Zero(t, store.adds)

	stored, err := svc.SubmitBatch(ctx, participant, []Answer{
		{QuestionID: "q2", Rating: models.Emoji5(models.LabelVeryGood)},
		{QuestionID: "q1", Rating: models.Numeric(8)},
	})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, 1, store.adds, "one persisted batch")
}

func TestSubmitBatchNothingVisible(t *testing.T) {
	svc := NewResponseService(&responseStubStore{})
	_, err := svc.SubmitBatch(context.Background(), participant, nil)
	assert.True(t, IsCode(err, ErrorInvalid))
}

func TestDashboardAndListOwn(t *testing.T) {
	store := newResponseFixture()
	store.responses = []models.Response{
		{ID: "r1", QuestionID: "q1", UserID: "2", Rating: models.Numeric(9), Company: "Acme", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "r2", QuestionID: "q1", UserID: "7", Rating: models.Numeric(3), Company: "Acme", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "r3", QuestionID: "gone", UserID: "2", Rating: models.Numeric(5), Company: "Acme", CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
	svc := NewResponseService(store)

	d, err := svc.Dashboard(participant, 5)
	require.NoError(t, err)
	require.Len(t, d.Questions, 2)
	assert.True(t, d.Questions[0].Answered)
	assert.False(t, d.Questions[1].Answered)
	assert.Equal(t, 1, d.Pending)
	assert.Equal(t, 1, d.Answered)
	assert.Equal(t, len(d.Questions), d.Answered+d.Pending)

	own, err := svc.ListOwn(participant)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "r3", own[0].ID)
	assert.Empty(t, own[0].QuestionText)
	assert.Equal(t, "Q001", own[1].QuestionCode)

	_, err = svc.ListCompany(participant)
	assert.True(t, IsCode(err, ErrorForbidden))
	all, err := svc.ListCompany(&models.User{ID: "1", Role: models.RoleAdmin, Company: "Acme"})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDashboardCountsAnsweredQuestionsNotResponses(t *testing.T) {
	store := newResponseFixture()
	store.responses = []models.Response{
		{ID: "r1", QuestionID: "q1", UserID: "2", Rating: models.Numeric(9), Company: "Acme"},
		{ID: "r2", QuestionID: "q1", UserID: "2", Rating: models.Numeric(4), Company: "Acme"},
		{ID: "r3", QuestionID: "q4", UserID: "2", Rating: models.Emoji3(models.LabelGood), Company: "Acme"},
		{ID: "r4", QuestionID: "q3", UserID: "2", Rating: models.Emoji3(models.LabelBad), Company: "Acme"},
	}
	d, err := NewResponseService(store).Dashboard(participant, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Answered)
	assert.Equal(t, 1, d.Pending)
	assert.Len(t, d.Recent, 4)
}
