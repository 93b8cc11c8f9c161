package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/soaringjerry/npsdesk/internal/models"
)

// Credential is one entry of the fixed login list. The profile is the
// fallback identity when no user record with that ID exists.
type Credential struct {
	Email    string
	PassHash []byte
	Profile  models.User
}

// NewCredential hashes password with cost (bcrypt.DefaultCost when zero).
func NewCredential(email, password string, profile models.User, cost int) (Credential, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return Credential{}, err
	}
	return Credential{Email: strings.ToLower(strings.TrimSpace(email)), PassHash: hash, Profile: profile}, nil
}

type AuthStore interface {
	FindCredential(email string) *Credential
	GetUser(id string) *models.User
}

type TokenSigner func(u models.User, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func NewAuthService(store AuthStore, signer TokenSigner, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		signToken: signer,
		tokenTTL:  ttl,
	}
}

var errInvalidCredentials = NewUnauthorizedError("invalid credentials")

// Login checks email and password against the credential list. Every
// failure is reported as the same unauthorized error.
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errInvalidCredentials
	}
	cred := s.store.FindCredential(email)
	if cred == nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(cred.PassHash, []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	// credentials outlive deleted accounts; the user record decides
	u := s.store.GetUser(cred.Profile.ID)
	if u == nil {
		return nil, errInvalidCredentials
	}
	user := *u
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(user, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user, ExpiresAt: s.now().Add(s.tokenTTL)}, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
