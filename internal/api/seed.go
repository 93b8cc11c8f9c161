package api

import (
	"time"

	"github.com/soaringjerry/npsdesk/internal/models"
	"github.com/soaringjerry/npsdesk/internal/services"
)

// DemoCompany is the company of the seeded dataset.
const DemoCompany = "Demo Company"

// Seed is the dataset used when a collection has never been stored or
// cannot be decoded.
type Seed struct {
	Questions []models.Question
	Responses []models.Response
	Users     []models.User
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// DefaultSeed returns the demo dataset.
func DefaultSeed() Seed {
	return Seed{
		Questions: []models.Question{
			{
				ID: "1", QuestionID: "Q001", Text: "How satisfied are you with our customer service?",
				CreatedAt: day(2024, 1, 15), CreatedBy: "Admin User", IsActive: true,
				ScaleType: models.ScaleEmoji3, Company: DemoCompany, AssignedTo: models.AssignAll,
			},
			{
				ID: "2", QuestionID: "Q002", Text: "How would you rate the quality of our product?",
				CreatedAt: day(2024, 1, 20), CreatedBy: "Admin User", IsActive: true,
				ScaleType: models.ScaleEmoji5, Company: DemoCompany, AssignedTo: models.AssignAll,
			},
		},
		Responses: []models.Response{
			{
				ID: "1", QuestionID: "1", UserID: "2", UserName: "Regular User", Rating: models.Emoji3(models.LabelExcellent),
				Comment: "Excellent service!", CreatedAt: day(2024, 1, 16), Company: DemoCompany,
			},
			{
				ID: "2", QuestionID: "1", UserID: "3", UserName: "John Doe", Rating: models.Emoji3(models.LabelBad),
				CreatedAt: day(2024, 1, 17), Company: DemoCompany,
			},
			{
				ID: "3", QuestionID: "2", UserID: "2", UserName: "Regular User", Rating: models.Emoji5(models.LabelGood),
				CreatedAt: day(2024, 1, 21), Company: DemoCompany,
			},
		},
		Users: []models.User{
			{ID: "1", Email: "admin@example.com", Name: "Admin User", Role: models.RoleAdmin, Company: DemoCompany, CreatedAt: day(2024, 1, 1)},
			{ID: "2", Email: "user@example.com", Name: "Regular User", Role: models.RoleUser, Company: DemoCompany, CreatedAt: day(2024, 1, 5)},
			{ID: "3", Email: "john@example.com", Name: "John Doe", Role: models.RoleUser, Company: DemoCompany, Origin: "import", CreatedAt: day(2024, 1, 8)},
		},
	}
}

// DefaultCredentials builds the fixed login list. cost is the bcrypt cost;
// tests pass bcrypt.MinCost.
func DefaultCredentials(cost int) ([]services.Credential, error) {
	seed := DefaultSeed()
	pairs := []struct {
		user     models.User
		password string
	}{
		{seed.Users[0], "admin123"},
		{seed.Users[1], "user123"},
	}
	out := make([]services.Credential, 0, len(pairs))
	for _, p := range pairs {
		c, err := services.NewCredential(p.user.Email, p.password, p.user, cost)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
