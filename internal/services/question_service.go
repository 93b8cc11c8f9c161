package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/npsdesk/internal/models"
)

// QuestionStore abstracts question persistence. InsertQuestions and
// UpdateQuestion re-check code uniqueness per company atomically and return
// a conflict error when a code is already used.
type QuestionStore interface {
	GetQuestion(id string) *models.Question
	ListQuestions(company string) []models.Question
	ListUsers(company string) []models.User
	InsertQuestions(ctx context.Context, qs []models.Question) error
	UpdateQuestion(ctx context.Context, q models.Question) error
	DeleteQuestion(ctx context.Context, id string) error
	AddAudit(entry AuditEntry)
}

// QuestionInput is the create payload. Zero values take the defaults:
// emoji3 scale, assigned to all, active, generated question code.
type QuestionInput struct {
	QuestionID      string            `json:"questionId"`
	Text            string            `json:"text"`
	ScaleType       models.ScaleType  `json:"scaleType"`
	AssignedTo      models.Assignment `json:"assignedTo"`
	AssignedUserIDs []string          `json:"assignedUserIds"`
	IsActive        *bool             `json:"isActive"`
}

// QuestionPatch carries a partial update; nil fields are left untouched.
// The scale cannot change once responses may exist.
type QuestionPatch struct {
	QuestionID      *string            `json:"questionId"`
	Text            *string            `json:"text"`
	IsActive        *bool              `json:"isActive"`
	AssignedTo      *models.Assignment `json:"assignedTo"`
	AssignedUserIDs *[]string          `json:"assignedUserIds"`
}

// maxCodeAttempts bounds the retries of a create whose generated code was
// claimed concurrently.
const maxCodeAttempts = 32

type QuestionService struct {
	store       QuestionStore
	now         func() time.Time
	idGenerator func() string
}

func NewQuestionService(store QuestionStore) *QuestionService {
	return &QuestionService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

func (s *QuestionService) List(actor *models.User) ([]models.Question, error) {
	if !Can(actor, ActionManageQuestions) {
		return nil, NewForbiddenError("forbidden")
	}
	return s.store.ListQuestions(actor.Company), nil
}

// Create adds a question owned by actor's company.
func (s *QuestionService) Create(ctx context.Context, actor *models.User, in QuestionInput) (*models.Question, error) {
	if !Can(actor, ActionManageQuestions) {
		return nil, NewForbiddenError("forbidden")
	}
	users := s.knownUsers(actor.Company)
	var q models.Question
	for attempt := 0; ; attempt++ {
		var err error
		q, err = s.build(actor, in, s.store.ListQuestions(actor.Company), users)
		if err != nil {
			return nil, err
		}
		err = s.store.InsertQuestions(ctx, []models.Question{q})
		if err == nil {
			break
		}
		// a generated code can be taken by a concurrent create; pick the next one
		if in.QuestionID != "" || !IsCode(err, ErrorConflict) || attempt >= maxCodeAttempts {
			return nil, err
		}
	}
	s.store.AddAudit(AuditEntry{Time: q.CreatedAt, Actor: actor.Email, Action: "create_question", Target: q.ID, Note: q.QuestionID})
	return &q, nil
}

func (s *QuestionService) build(actor *models.User, in QuestionInput, existing []models.Question, users map[string]bool) (models.Question, error) {
	q := models.Question{
		ID:         s.idGenerator(),
		QuestionID: strings.TrimSpace(in.QuestionID),
		Text:       strings.TrimSpace(in.Text),
		CreatedAt:  s.now(),
		CreatedBy:  actor.Name,
		IsActive:   true,
		ScaleType:  in.ScaleType,
		Company:    actor.Company,
		AssignedTo: in.AssignedTo,
	}
	if in.IsActive != nil {
		q.IsActive = *in.IsActive
	}
	if q.Text == "" {
		return q, NewInvalidError("question text is required")
	}
	if q.ScaleType == "" {
		q.ScaleType = models.ScaleEmoji3
	}
	if !q.ScaleType.Valid() {
		return q, NewInvalidError(fmt.Sprintf("unknown scale type %q", q.ScaleType))
	}
	if q.AssignedTo == "" {
		q.AssignedTo = models.AssignAll
	}
	if q.QuestionID == "" {
		q.QuestionID = nextQuestionCode(existing)
	} else if codeTaken(existing, q.QuestionID, "") {
		return q, NewConflictError(fmt.Sprintf("question id %s already exists", q.QuestionID))
	}
	ids, err := checkAssignment(q.AssignedTo, in.AssignedUserIDs, users)
	if err != nil {
		return q, err
	}
	q.AssignedUserIDs = ids
	return q, nil
}

// Update applies patch to question id of actor's company.
func (s *QuestionService) Update(ctx context.Context, actor *models.User, id string, patch QuestionPatch) (*models.Question, error) {
	if !Can(actor, ActionManageQuestions) {
		return nil, NewForbiddenError("forbidden")
	}
	old := s.store.GetQuestion(id)
	if old == nil || old.Company != actor.Company {
		return nil, NewNotFoundError("question not found")
	}
	updated := *old
	if patch.Text != nil {
		updated.Text = strings.TrimSpace(*patch.Text)
		if updated.Text == "" {
			return nil, NewInvalidError("question text is required")
		}
	}
	if patch.QuestionID != nil {
		code := strings.TrimSpace(*patch.QuestionID)
		if code == "" {
			return nil, NewInvalidError("question id is required")
		}
		if codeTaken(s.store.ListQuestions(actor.Company), code, old.ID) {
			return nil, NewConflictError(fmt.Sprintf("question id %s already exists", code))
		}
		updated.QuestionID = code
	}
	if patch.IsActive != nil {
		updated.IsActive = *patch.IsActive
	}
	if patch.AssignedTo != nil || patch.AssignedUserIDs != nil {
		if patch.AssignedTo != nil {
			updated.AssignedTo = *patch.AssignedTo
		}
		ids := old.AssignedUserIDs
		if patch.AssignedUserIDs != nil {
			ids = *patch.AssignedUserIDs
		}
		checked, err := checkAssignment(updated.AssignedTo, ids, s.knownUsers(actor.Company))
		if err != nil {
			return nil, err
		}
		updated.AssignedUserIDs = checked
	}
	if err := s.store.UpdateQuestion(ctx, updated); err != nil {
		return nil, err
	}
	note := ""
	if patch.IsActive != nil && *patch.IsActive != old.IsActive {
		note = fmt.Sprintf("active=%t", *patch.IsActive)
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.Email, Action: "update_question", Target: id, Note: note})
	return &updated, nil
}

// Delete removes a question. Its responses are kept.
func (s *QuestionService) Delete(ctx context.Context, actor *models.User, id string) error {
	if !Can(actor, ActionManageQuestions) {
		return NewForbiddenError("forbidden")
	}
	q := s.store.GetQuestion(id)
	if q == nil || q.Company != actor.Company {
		return NewNotFoundError("question not found")
	}
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.Email, Action: "delete_question", Target: id, Note: q.QuestionID})
	return nil
}

// ImportCSV creates one question per row. Recognised columns are
// question_id, text, scale_type, assigned_to, assigned_user_ids (pipe
// separated) and active; only text is required. Nothing is stored when any
// row is invalid.
func (s *QuestionService) ImportCSV(ctx context.Context, actor *models.User, data []byte) (int, error) {
	if !Can(actor, ActionManageQuestions) {
		return 0, NewForbiddenError("forbidden")
	}
	// Strip optional UTF-8 BOM
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return 0, NewInvalidError("invalid csv: " + err.Error())
	}
	if len(rows) < 2 {
		return 0, NewInvalidError("empty csv")
	}
	header := rows[0]
	idx := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}
	iCode, iText, iScale := idx("question_id"), idx("text"), idx("scale_type")
	iAssign, iUsers, iActive := idx("assigned_to"), idx("assigned_user_ids"), idx("active")
	if iText < 0 {
		return 0, NewInvalidError("csv needs a text column")
	}
	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	existing := s.store.ListQuestions(actor.Company)
	users := s.knownUsers(actor.Company)
	created := make([]models.Question, 0, len(rows)-1)
	for n, row := range rows[1:] {
		in := QuestionInput{
			QuestionID: cell(row, iCode),
			Text:       cell(row, iText),
			ScaleType:  models.ScaleType(strings.ToLower(cell(row, iScale))),
			AssignedTo: models.Assignment(strings.ToLower(cell(row, iAssign))),
		}
		if v := cell(row, iUsers); v != "" {
			in.AssignedUserIDs = strings.Split(v, "|")
		}
		if v := strings.ToLower(cell(row, iActive)); v != "" {
			active := v == "1" || v == "true" || v == "yes" || v == "y"
			in.IsActive = &active
		}
		q, err := s.build(actor, in, existing, users)
		if err != nil {
			return 0, NewInvalidError(fmt.Sprintf("row %d: %v", n+2, err))
		}
		existing = append(existing, q)
		created = append(created, q)
	}
	if err := s.store.InsertQuestions(ctx, created); err != nil {
		return 0, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.Email, Action: "import_questions", Target: actor.Company, Note: fmt.Sprint(len(created))})
	return len(created), nil
}

func (s *QuestionService) knownUsers(company string) map[string]bool {
	out := map[string]bool{}
	for _, u := range s.store.ListUsers(company) {
		out[u.ID] = true
	}
	return out
}

// checkAssignment validates the assignment mode and returns the cleaned
// user list: nil for all, deduplicated known ids for selected.
func checkAssignment(mode models.Assignment, ids []string, known map[string]bool) ([]string, error) {
	if !mode.Valid() {
		return nil, NewInvalidError(fmt.Sprintf("unknown assignment %q", mode))
	}
	if mode == models.AssignAll {
		return nil, nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if !known[id] {
			return nil, NewInvalidError(fmt.Sprintf("unknown user %s", id))
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, NewInvalidError("select at least one user")
	}
	return out, nil
}

func codeTaken(qs []models.Question, code, exceptID string) bool {
	for _, q := range qs {
		if q.ID != exceptID && strings.EqualFold(q.QuestionID, code) {
			return true
		}
	}
	return false
}

// nextQuestionCode returns the first free Qnnn code after the company's count.
func nextQuestionCode(qs []models.Question) string {
	for n := len(qs) + 1; ; n++ {
		code := fmt.Sprintf("Q%03d", n)
		if !codeTaken(qs, code, "") {
			return code
		}
	}
}
