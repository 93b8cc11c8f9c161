package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/npsdesk/internal/models"
)

type UserStore interface {
	GetUser(id string) *models.User
	ListUsers(company string) []models.User
	FindUserByEmail(email string) *models.User
	InsertUser(ctx context.Context, u models.User) error
	UpdateUser(ctx context.Context, u models.User) error
	DeleteUser(ctx context.Context, id string) error
	AddAudit(entry AuditEntry)
}

type UserInput struct {
	Email   string      `json:"email"`
	Name    string      `json:"name"`
	Role    models.Role `json:"role"`
	Company string      `json:"company"`
	Origin  string      `json:"origin"`
}

type UserPatch struct {
	Email   *string      `json:"email"`
	Name    *string      `json:"name"`
	Role    *models.Role `json:"role"`
	Company *string      `json:"company"`
	Origin  *string      `json:"origin"`
}

type UserService struct {
	store       UserStore
	now         func() time.Time
	idGenerator func() string
}

func NewUserService(store UserStore) *UserService {
	return &UserService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

// Get returns the current record of id, for session refreshes.
func (s *UserService) Get(id string) (*models.User, error) {
	u := s.store.GetUser(id)
	if u == nil {
		return nil, NewNotFoundError("user not found")
	}
	return u, nil
}

func (s *UserService) List(actor *models.User) ([]models.User, error) {
	if !Can(actor, ActionManageUsers) {
		return nil, NewForbiddenError("forbidden")
	}
	return s.store.ListUsers(actor.Company), nil
}

func (s *UserService) Create(ctx context.Context, actor *models.User, in UserInput) (*models.User, error) {
	if !Can(actor, ActionManageUsers) {
		return nil, NewForbiddenError("forbidden")
	}
	u := models.User{
		ID:        s.idGenerator(),
		Email:     normalizeEmail(in.Email),
		Name:      strings.TrimSpace(in.Name),
		Role:      in.Role,
		Company:   strings.TrimSpace(in.Company),
		Origin:    strings.TrimSpace(in.Origin),
		CreatedAt: s.now(),
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Company == "" {
		u.Company = actor.Company
	}
	if err := s.validate(u, ""); err != nil {
		return nil, err
	}
	if err := s.store.InsertUser(ctx, u); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: u.CreatedAt, Actor: actor.Email, Action: "create_user", Target: u.ID, Note: u.Email})
	return &u, nil
}

func (s *UserService) Update(ctx context.Context, actor *models.User, id string, patch UserPatch) (*models.User, error) {
	if !Can(actor, ActionManageUsers) {
		return nil, NewForbiddenError("forbidden")
	}
	old := s.store.GetUser(id)
	if old == nil || old.Company != actor.Company {
		return nil, NewNotFoundError("user not found")
	}
	updated := *old
	if patch.Email != nil {
		updated.Email = normalizeEmail(*patch.Email)
	}
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Role != nil {
		updated.Role = *patch.Role
	}
	if patch.Company != nil {
		updated.Company = strings.TrimSpace(*patch.Company)
	}
	if patch.Origin != nil {
		updated.Origin = strings.TrimSpace(*patch.Origin)
	}
	if id == actor.ID && updated.Role != models.RoleAdmin {
		return nil, NewInvalidError("you cannot remove your own admin role")
	}
	if err := s.validate(updated, id); err != nil {
		return nil, err
	}
	if err := s.store.UpdateUser(ctx, updated); err != nil {
		return nil, err
	}
	note := ""
	if updated.Role != old.Role {
		note = "role=" + string(updated.Role)
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.Email, Action: "update_user", Target: id, Note: note})
	return &updated, nil
}

// Delete removes a user. Their responses are kept.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id string) error {
	if !Can(actor, ActionManageUsers) {
		return NewForbiddenError("forbidden")
	}
	if id == actor.ID {
		return NewInvalidError("you cannot delete yourself")
	}
	u := s.store.GetUser(id)
	if u == nil || u.Company != actor.Company {
		return NewNotFoundError("user not found")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.Email, Action: "delete_user", Target: id, Note: u.Email})
	return nil
}

func (s *UserService) validate(u models.User, selfID string) error {
	if u.Name == "" {
		return NewInvalidError("name is required")
	}
	if u.Email == "" {
		return NewInvalidError("email is required")
	}
	if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
		return NewInvalidError(fmt.Sprintf("invalid email %q", u.Email))
	}
	if !u.Role.Valid() {
		return NewInvalidError(fmt.Sprintf("unknown role %q", u.Role))
	}
	if u.Company == "" {
		return NewInvalidError("company is required")
	}
	if other := s.store.FindUserByEmail(u.Email); other != nil && other.ID != selfID {
		return NewConflictError("email already in use")
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
