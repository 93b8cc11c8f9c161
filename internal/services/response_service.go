package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soaringjerry/npsdesk/internal/models"
)

// ResponseStore abstracts the persistence operations required by ResponseService.
// AddResponses assigns ids and timestamps and persists the batch atomically.
type ResponseStore interface {
	GetQuestion(id string) *models.Question
	ListQuestions(company string) []models.Question
	ListResponses(company string) []models.Response
	AddResponses(ctx context.Context, drafts []models.ResponseDraft) ([]models.Response, error)
}

// Answer is one rating submitted by a user.
type Answer struct {
	QuestionID string        `json:"questionId"`
	Rating     models.Rating `json:"rating"`
	Comment    string        `json:"comment,omitempty"`
}

var (
	// ErrScaleMismatch is returned when a rating's scale differs from the question's.
	ErrScaleMismatch = NewInvalidError("rating scale does not match the question")
	// ErrRatingRequired is returned when no rating was selected.
	ErrRatingRequired = NewInvalidError("please select a rating")
)

var (
	errQuestionNotFound = NewNotFoundError("question not found")
	errNotAssigned      = NewForbiddenError("question is not assigned to you")
)

type ResponseService struct {
	store ResponseStore
}

func NewResponseService(store ResponseStore) *ResponseService {
	return &ResponseService{store: store}
}

// Submit stores a single answer after checking the question is visible to
// actor and the rating belongs to the question's scale.
func (s *ResponseService) Submit(ctx context.Context, actor *models.User, ans Answer) (*models.Response, error) {
	if s.store == nil {
		return nil, errors.New("response service store is nil")
	}
	if !Can(actor, ActionSubmitResponse) {
		return nil, NewForbiddenError("forbidden")
	}
	q := s.store.GetQuestion(ans.QuestionID)
	if q == nil || q.Company != actor.Company {
		return nil, errQuestionNotFound
	}
	if !IsVisibleTo(*actor, *q) {
		return nil, errNotAssigned
	}
	if err := checkRating(*q, ans.Rating); err != nil {
		return nil, err
	}
	stored, err := s.store.AddResponses(ctx, []models.ResponseDraft{draftFor(actor, ans)})
	if err != nil {
		return nil, err
	}
	if len(stored) != 1 {
		return nil, fmt.Errorf("store returned %d responses for 1 draft", len(stored))
	}
	return &stored[0], nil
}

// SubmitBatch stores one answer per visible question. Either every visible
// question is answered exactly once with a valid rating, or nothing is stored.
func (s *ResponseService) SubmitBatch(ctx context.Context, actor *models.User, answers []Answer) ([]models.Response, error) {
	if s.store == nil {
		return nil, errors.New("response service store is nil")
	}
	if !Can(actor, ActionSubmitResponse) {
		return nil, NewForbiddenError("forbidden")
	}
	visible := VisibleQuestions(*actor, s.store.ListQuestions(actor.Company))
	if len(visible) == 0 {
		return nil, NewInvalidError("no questions to answer")
	}
	byID := make(map[string]models.Question, len(visible))
	for _, q := range visible {
		byID[q.ID] = q
	}
	seen := make(map[string]bool, len(answers))
	drafts := make([]models.ResponseDraft, 0, len(answers))
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			if other := s.store.GetQuestion(ans.QuestionID); other != nil && other.Company == actor.Company {
				return nil, errNotAssigned
			}
			return nil, errQuestionNotFound
		}
		if seen[q.ID] {
			return nil, NewInvalidError(fmt.Sprintf("question %s answered more than once", q.QuestionID))
		}
		seen[q.ID] = true
		if err := checkRating(q, ans.Rating); err != nil {
			return nil, err
		}
		drafts = append(drafts, draftFor(actor, ans))
	}
	for _, q := range visible {
		if !seen[q.ID] {
			return nil, NewInvalidError("please answer all questions")
		}
	}
	return s.store.AddResponses(ctx, drafts)
}

func checkRating(q models.Question, r models.Rating) error {
	if r.IsZero() {
		return ErrRatingRequired
	}
	if err := r.Validate(); err != nil {
		return NewInvalidError(err.Error())
	}
	if r.Scale != q.ScaleType {
		return ErrScaleMismatch
	}
	return nil
}

func draftFor(actor *models.User, ans Answer) models.ResponseDraft {
	return models.ResponseDraft{
		QuestionID: ans.QuestionID,
		UserID:     actor.ID,
		UserName:   actor.Name,
		Rating:     ans.Rating,
		Comment:    strings.TrimSpace(ans.Comment),
		Company:    actor.Company,
	}
}

// ListOwn returns actor's responses joined with their questions, newest first.
func (s *ResponseService) ListOwn(actor *models.User) ([]ResponseView, error) {
	if !Can(actor, ActionReadOwnResponses) {
		return nil, NewForbiddenError("forbidden")
	}
	var own []models.Response
	for _, r := range s.store.ListResponses(actor.Company) {
		if r.UserID == actor.ID {
			own = append(own, r)
		}
	}
	return Newest(JoinResponses(s.store.ListQuestions(actor.Company), own), 0), nil
}

// ListCompany returns every response of actor's company, newest first.
func (s *ResponseService) ListCompany(actor *models.User) ([]ResponseView, error) {
	if !Can(actor, ActionReadAllResponses) {
		return nil, NewForbiddenError("forbidden")
	}
	return Newest(JoinResponses(s.store.ListQuestions(actor.Company), s.store.ListResponses(actor.Company)), 0), nil
}

// QuestionView is a visible question with the actor's answered flag.
type QuestionView struct {
	models.Question
	Answered bool `json:"answered"`
}

// UserDashboard is the landing view of a participant.
type UserDashboard struct {
	Questions []QuestionView `json:"questions"`
	Pending   int            `json:"pending"`
	Answered  int            `json:"answered"`
	Recent    []ResponseView `json:"recent"`
}

// Dashboard lists the questions visible to actor, flags those already
// answered and includes the newest responses of actor.
func (s *ResponseService) Dashboard(actor *models.User, recent int) (*UserDashboard, error) {
	if !Can(actor, ActionReadOwnDashboard) {
		return nil, NewForbiddenError("forbidden")
	}
	qs := s.store.ListQuestions(actor.Company)
	var own []models.Response
	for _, r := range s.store.ListResponses(actor.Company) {
		if r.UserID == actor.ID {
			own = append(own, r)
		}
	}
	pending := map[string]bool{}
	for _, q := range PendingQuestions(*actor, qs, own) {
		pending[q.ID] = true
	}
	d := &UserDashboard{Questions: []QuestionView{}}
	for _, q := range VisibleQuestions(*actor, qs) {
		d.Questions = append(d.Questions, QuestionView{Question: q, Answered: !pending[q.ID]})
		if pending[q.ID] {
			d.Pending++
		} else {
			d.Answered++
		}
	}
	d.Recent = Newest(JoinResponses(qs, own), recent)
	return d, nil
}
