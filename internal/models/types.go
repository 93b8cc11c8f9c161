package models

import "time"

// Role separates administrators from survey participants.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

// Assignment selects who must answer a question.
type Assignment string

const (
	AssignAll      Assignment = "all"
	AssignSelected Assignment = "selected"
)

// Valid reports whether a is a known assignment mode.
func (a Assignment) Valid() bool { return a == AssignAll || a == AssignSelected }

// Question is an NPS prompt configured with one rating scale.
// AssignedUserIDs is only meaningful when AssignedTo is AssignSelected.
type Question struct {
	ID              string     `json:"id"`
	QuestionID      string     `json:"questionId"` // human code, e.g. Q001
	Text            string     `json:"text"`
	CreatedAt       time.Time  `json:"createdAt"`
	CreatedBy       string     `json:"createdBy"`
	IsActive        bool       `json:"isActive"`
	ScaleType       ScaleType  `json:"scaleType"`
	Company         string     `json:"company"`
	AssignedTo      Assignment `json:"assignedTo"`
	AssignedUserIDs []string   `json:"assignedUserIds,omitempty"`
}

// Response is a single submitted rating. Responses are never edited.
type Response struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"questionId"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	Rating     Rating    `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Company    string    `json:"company"`
}

// ResponseDraft carries the caller-supplied fields of a Response; the store
// assigns ID and CreatedAt on insertion.
type ResponseDraft struct {
	QuestionID string
	UserID     string
	UserName   string
	Rating     Rating
	Comment    string
	Company    string
}

// User is a survey participant or administrator account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Company   string    `json:"company"`
	Origin    string    `json:"origin,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin is a nil-safe role check.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
