package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/npsdesk/internal/models"
)

func TestExportResponsesCSVQuotesEveryField(t *testing.T) {
	qs := []models.Question{{ID: "q1", QuestionID: "Q001", Text: `Rate "us", please`}}
	rs := []models.Response{{
		ID: "r1", QuestionID: "q1", UserName: "Regular User", Company: "Acme",
		Rating: models.Numeric(9), Comment: "fast,\nfriendly",
		CreatedAt: time.Date(2024, 1, 16, 10, 30, 0, 0, time.UTC),
	}}
	out := string(ExportResponsesCSV(JoinResponses(qs, rs), "en", time.UTC))
	lines := strings.SplitN(out, "\n", 2)
	require.Len(t, lines, 2)
	assert.Equal(t, "Response ID,Company,Question ID,Scale,Question Text,User Name,Rating,Comment,Date", lines[0])
	assert.Equal(t,
		`"r1","Acme","Q001","numeric","Rate ""us"", please","Regular User","9","fast,`+"\n"+`friendly","1/16/2024"`+"\n",
		lines[1])
}

func TestExportResponsesCSVMissingQuestion(t *testing.T) {
	rs := []models.Response{{
		ID: "r1", QuestionID: "gone", UserName: "U", Company: "Acme",
		Rating: models.Emoji3(models.LabelGood), CreatedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}}
	out := string(ExportResponsesCSV(JoinResponses(nil, rs), "pt", nil))
	assert.Contains(t, out, `"r1","Acme","","emoji3","","U","good","","05/03/2024"`)
}

func TestDateLayoutFallsBack(t *testing.T) {
	assert.Equal(t, "1/2/2006", DateLayout("fr"))
	assert.Equal(t, "02/01/2006", DateLayout("pt"))
}

func TestNewest(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	vs := []ResponseView{
		{Response: models.Response{ID: "a", CreatedAt: base}},
		{Response: models.Response{ID: "b", CreatedAt: base.Add(2 * time.Hour)}},
		{Response: models.Response{ID: "c", CreatedAt: base.Add(time.Hour)}},
	}
	got := Newest(vs, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Len(t, Newest(vs, 0), 3)
	assert.Equal(t, "a", vs[0].ID, "input untouched")
}

func TestReportFilename(t *testing.T) {
	assert.Equal(t, "nps-report-2024-01-16.csv", ReportFilename(time.Date(2024, 1, 16, 23, 0, 0, 0, time.UTC)))
}
