package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/soaringjerry/npsdesk/internal/db"
	"github.com/soaringjerry/npsdesk/internal/models"
	"github.com/soaringjerry/npsdesk/internal/services"
)

// CollectionStore holds the three collections in memory and writes the full
// affected collection to the backend on every mutation. A mutation becomes
// visible only after its save succeeded.
type CollectionStore struct {
	mu          sync.RWMutex
	backend     db.Backend
	log         zerolog.Logger
	questions   []models.Question
	responses   []models.Response
	users       []models.User
	credentials map[string]services.Credential
	audit       []services.AuditEntry
	lastExport  map[string]time.Time
	now         func() time.Time
	newID       func() string
}

func NewCollectionStore(backend db.Backend, logger zerolog.Logger) *CollectionStore {
	return &CollectionStore{
		backend:     backend,
		log:         logger.With().Str("component", "store").Logger(),
		credentials: map[string]services.Credential{},
		lastExport:  map[string]time.Time{},
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// Load reads every collection from the backend. Missing collections are
// replaced by the seed and written back. A stored document is never
// overwritten during load: records that cannot be decoded are skipped after
// the whole document has been copied to a backup key, and a document that is
// not a list at all is backed up before the seed replaces it.
func (s *CollectionStore) Load(ctx context.Context, seed Seed) error {
	qs, err := loadCollection(ctx, s, db.QuestionsKey, seed.Questions)
	if err != nil {
		return err
	}
	rs, err := loadCollection(ctx, s, db.ResponsesKey, seed.Responses)
	if err != nil {
		return err
	}
	us, err := loadCollection(ctx, s, db.UsersKey, seed.Users)
	if err != nil {
		return err
	}
	if n := upgradeRatings(qs, rs); n > 0 {
		s.log.Info().Int("responses", n).Msg("legacy ratings moved onto their question scale")
	}
	s.mu.Lock()
	s.questions, s.responses, s.users = qs, rs, us
	s.mu.Unlock()
	return nil
}

// BackupKey names the copy kept of an unreadable collection document.
func BackupKey(name string, at time.Time) string {
	return name + ".unreadable-" + at.UTC().Format("20060102T150405.000000000Z")
}

func loadCollection[T any](ctx context.Context, s *CollectionStore, name string, fallback []T) ([]T, error) {
	data, err := s.backend.Load(ctx, name)
	if errors.Is(err, db.ErrNotFound) {
		s.log.Info().Str("collection", name).Int("records", len(fallback)).Msg("collection missing, seeding")
		return seedCollection(ctx, s, name, fallback)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		if err := s.backup(ctx, name, data); err != nil {
			return nil, err
		}
		s.log.Warn().Err(err).Str("collection", name).Msg("collection is not a list, reseeding")
		return seedCollection(ctx, s, name, fallback)
	}
	out := make([]T, 0, len(items))
	skipped := 0
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			skipped++
			s.log.Warn().Err(err).Str("collection", name).Int("index", i).Msg("skipping unreadable record")
			continue
		}
		out = append(out, v)
	}
	if skipped > 0 {
		if err := s.backup(ctx, name, data); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func seedCollection[T any](ctx context.Context, s *CollectionStore, name string, fallback []T) ([]T, error) {
	out := append([]T{}, fallback...)
	if err := s.persist(ctx, name, out); err != nil {
		return nil, err
	}
	return out, nil
}

// backup stores data under BackupKey so a later write of name cannot lose it.
func (s *CollectionStore) backup(ctx context.Context, name string, data []byte) error {
	key := BackupKey(name, s.now())
	if err := s.backend.Save(ctx, key, data); err != nil {
		return fmt.Errorf("back up unreadable %s: %w", name, err)
	}
	s.log.Warn().Str("collection", name).Str("backup", key).Msg("unreadable collection backed up")
	return nil
}

// upgradeRatings moves untagged emoji labels read from older records onto
// the scale of their question and reports how many changed.
func upgradeRatings(qs []models.Question, rs []models.Response) int {
	scales := make(map[string]models.ScaleType, len(qs))
	for _, q := range qs {
		scales[q.ID] = q.ScaleType
	}
	changed := 0
	for i := range rs {
		scale, ok := scales[rs[i].QuestionID]
		if !ok || rs[i].Rating.Scale == scale {
			continue
		}
		if up := rs[i].Rating.WithScale(scale); up != rs[i].Rating {
			rs[i].Rating = up
			changed++
		}
	}
	return changed
}

func (s *CollectionStore) persist(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.backend.Save(ctx, name, data); err != nil {
		s.log.Error().Err(err).Str("collection", name).Msg("persist failed")
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

// SetCredentials replaces the login list.
func (s *CollectionStore) SetCredentials(creds []services.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = make(map[string]services.Credential, len(creds))
	for _, c := range creds {
		s.credentials[strings.ToLower(c.Email)] = c
	}
}

func (s *CollectionStore) FindCredential(email string) *services.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credentials[strings.ToLower(email)]
	if !ok {
		return nil
	}
	return &c
}

// scoped copies the records of company, or all records when company is "".
func scoped[T any](items []T, company string, companyOf func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if company == "" || companyOf(it) == company {
			out = append(out, it)
		}
	}
	return out
}

func questionCompany(q models.Question) string { return q.Company }
func responseCompany(r models.Response) string { return r.Company }
func userCompany(u models.User) string         { return u.Company }

func (s *CollectionStore) ListQuestions(company string) []models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scoped(s.questions, company, questionCompany)
}

func (s *CollectionStore) ListResponses(company string) []models.Response {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scoped(s.responses, company, responseCompany)
}

func (s *CollectionStore) ListUsers(company string) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scoped(s.users, company, userCompany)
}

func (s *CollectionStore) GetQuestion(id string) *models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.questions {
		if q.ID == id {
			return &q
		}
	}
	return nil
}

func (s *CollectionStore) GetUser(id string) *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return &u
		}
	}
	return nil
}

func (s *CollectionStore) FindUserByEmail(email string) *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u
		}
	}
	return nil
}

// AddResponses stamps each draft with a fresh id and the current time and
// appends them as one write.
func (s *CollectionStore) AddResponses(ctx context.Context, drafts []models.ResponseDraft) ([]models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	added := make([]models.Response, 0, len(drafts))
	for _, d := range drafts {
		added = append(added, models.Response{
			ID:         s.newID(),
			QuestionID: d.QuestionID,
			UserID:     d.UserID,
			UserName:   d.UserName,
			Rating:     d.Rating,
			Comment:    d.Comment,
			CreatedAt:  now,
			Company:    d.Company,
		})
	}
	next := append(append(make([]models.Response, 0, len(s.responses)+len(added)), s.responses...), added...)
	if err := s.persist(ctx, db.ResponsesKey, next); err != nil {
		return nil, err
	}
	s.responses = next
	return added, nil
}

func (s *CollectionStore) InsertQuestions(ctx context.Context, qs []models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code, ok := codeConflict(s.questions, qs); ok {
		return services.NewConflictError(fmt.Sprintf("question id %s already exists", code))
	}
	next := append(append(make([]models.Question, 0, len(s.questions)+len(qs)), s.questions...), qs...)
	if err := s.persist(ctx, db.QuestionsKey, next); err != nil {
		return err
	}
	s.questions = next
	return nil
}

func (s *CollectionStore) UpdateQuestion(ctx context.Context, q models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code, ok := codeConflict(s.questions, []models.Question{q}); ok {
		return services.NewConflictError(fmt.Sprintf("question id %s already exists", code))
	}
	next, ok := replaced(s.questions, q, func(x models.Question) bool { return x.ID == q.ID })
	if !ok {
		return services.NewNotFoundError("question not found")
	}
	if err := s.persist(ctx, db.QuestionsKey, next); err != nil {
		return err
	}
	s.questions = next
	return nil
}

// DeleteQuestion leaves the question's responses in place.
func (s *CollectionStore) DeleteQuestion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := without(s.questions, func(x models.Question) bool { return x.ID == id })
	if !ok {
		return services.NewNotFoundError("question not found")
	}
	if err := s.persist(ctx, db.QuestionsKey, next); err != nil {
		return err
	}
	s.questions = next
	return nil
}

func (s *CollectionStore) InsertUser(ctx context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(append(make([]models.User, 0, len(s.users)+1), s.users...), u)
	if err := s.persist(ctx, db.UsersKey, next); err != nil {
		return err
	}
	s.users = next
	return nil
}

func (s *CollectionStore) UpdateUser(ctx context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := replaced(s.users, u, func(x models.User) bool { return x.ID == u.ID })
	if !ok {
		return services.NewNotFoundError("user not found")
	}
	if err := s.persist(ctx, db.UsersKey, next); err != nil {
		return err
	}
	s.users = next
	return nil
}

// DeleteUser leaves the user's responses in place.
func (s *CollectionStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := without(s.users, func(x models.User) bool { return x.ID == id })
	if !ok {
		return services.NewNotFoundError("user not found")
	}
	if err := s.persist(ctx, db.UsersKey, next); err != nil {
		return err
	}
	s.users = next
	return nil
}

// codeConflict reports the first code of add already used by another
// question of the same company, in the store or earlier in add.
func codeConflict(existing, add []models.Question) (string, bool) {
	key := func(q models.Question) string { return q.Company + "\x00" + strings.ToLower(q.QuestionID) }
	replacing := make(map[string]bool, len(add))
	for _, q := range add {
		replacing[q.ID] = true
	}
	owner := make(map[string]string, len(existing)+len(add))
	for _, q := range existing {
		if !replacing[q.ID] {
			owner[key(q)] = q.ID
		}
	}
	for _, q := range add {
		if id, ok := owner[key(q)]; ok && id != q.ID {
			return q.QuestionID, true
		}
		owner[key(q)] = q.ID
	}
	return "", false
}

func replaced[T any](items []T, v T, match func(T) bool) ([]T, bool) {
	out := make([]T, len(items))
	copy(out, items)
	for i := range out {
		if match(out[i]) {
			out[i] = v
			return out, true
		}
	}
	return nil, false
}

func without[T any](items []T, match func(T) bool) ([]T, bool) {
	out := make([]T, 0, len(items))
	found := false
	for _, it := range items {
		if match(it) {
			found = true
			continue
		}
		out = append(out, it)
	}
	return out, found
}

// audit log
func (s *CollectionStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
	s.log.Info().Str("actor", e.Actor).Str("action", e.Action).Str("target", e.Target).Msg("audit")
}

func (s *CollectionStore) ListAudit() []services.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// AllowExport reports whether company may export now and records the attempt.
func (s *CollectionStore) AllowExport(company string, minInterval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if last, ok := s.lastExport[company]; ok && now.Sub(last) < minInterval {
		return false
	}
	s.lastExport[company] = now
	return true
}
