package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/soaringjerry/npsdesk/internal/models"
	"github.com/soaringjerry/npsdesk/internal/services"
)

type authCtxKey int

const authKey authCtxKey = 7

// SessionCookie carries the token for browser navigation.
const SessionCookie = "nps_session"

type Claims struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Company string `json:"company"`
	jwt.RegisteredClaims
}

// User rebuilds the identity carried by the token.
func (c *Claims) User() models.User {
	return models.User{ID: c.UID, Email: c.Email, Name: c.Name, Role: models.Role(c.Role), Company: c.Company}
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	if secret == "" {
		secret = "nps-dev-secret"
	}
	return &Tokens{secret: []byte(secret), now: time.Now}
}

// Sign matches services.TokenSigner.
func (t *Tokens) Sign(u models.User, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		UID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role), Company: u.Company,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *Tokens) Parse(tok string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tok, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if c, ok := parsed.Claims.(*Claims); ok && parsed.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// UserLookup returns the current record of a user id, or nil.
type UserLookup func(id string) *models.User

// WithAuth attaches the session user when a valid token is present in the
// Authorization header or the session cookie. With a lookup, the user's
// current record replaces the token's copy and a token whose user no longer
// exists is ignored.
func (t *Tokens) WithAuth(lookup UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}
			c, err := t.Parse(tok)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			u := c.User()
			if lookup != nil {
				cur := lookup(c.UID)
				if cur == nil {
					// account removed since the token was issued
					next.ServeHTTP(w, r)
					return
				}
				u = *cur
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), &u)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if ck, err := r.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

func ContextWithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, authKey, u)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(authKey).(*models.User)
	return u, ok && u != nil
}

// Require redirects with 303 to the login page when there is no session and
// to the user home when the session may not perform action.
func Require(action services.Action, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		if target := services.Guard(u, action); target != "" {
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
