package services

import "github.com/soaringjerry/npsdesk/internal/models"

// IsVisibleTo reports whether u must answer q: the question is active and
// either broadcast or explicitly assigned to u.
func IsVisibleTo(u models.User, q models.Question) bool {
	if !q.IsActive {
		return false
	}
	if q.AssignedTo == models.AssignAll {
		return true
	}
	if q.AssignedTo != models.AssignSelected {
		return false
	}
	for _, id := range q.AssignedUserIDs {
		if id == u.ID {
			return true
		}
	}
	return false
}

// VisibleQuestions keeps the questions u must answer, in input order.
func VisibleQuestions(u models.User, all []models.Question) []models.Question {
	out := make([]models.Question, 0, len(all))
	for _, q := range all {
		if IsVisibleTo(u, q) {
			out = append(out, q)
		}
	}
	return out
}

// PendingQuestions is VisibleQuestions minus the questions u already has a
// response for.
func PendingQuestions(u models.User, all []models.Question, responses []models.Response) []models.Question {
	answered := map[string]struct{}{}
	for _, r := range responses {
		if r.UserID == u.ID {
			answered[r.QuestionID] = struct{}{}
		}
	}
	visible := VisibleQuestions(u, all)
	out := visible[:0]
	for _, q := range visible {
		if _, ok := answered[q.ID]; !ok {
			out = append(out, q)
		}
	}
	return out
}
