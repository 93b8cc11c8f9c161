package services

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/soaringjerry/npsdesk/internal/models"
)

// ResponseView is a response joined with its question for listings and reports.
// QuestionCode and QuestionText stay empty when the question was deleted.
type ResponseView struct {
	models.Response
	QuestionCode string       `json:"questionCode"`
	QuestionText string       `json:"questionText"`
	ScaleType    string       `json:"scaleType"`
	Satisfaction Satisfaction `json:"satisfaction"`
}

// JoinResponses pairs each response with its question, in response order.
func JoinResponses(qs []models.Question, rs []models.Response) []ResponseView {
	byID := make(map[string]models.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	out := make([]ResponseView, 0, len(rs))
	for _, r := range rs {
		v := ResponseView{Response: r, ScaleType: string(r.Rating.Scale), Satisfaction: Classify(r.Rating)}
		if q, ok := byID[r.QuestionID]; ok {
			v.QuestionCode = q.QuestionID
			v.QuestionText = q.Text
		}
		out = append(out, v)
	}
	return out
}

// Newest returns up to n views, most recent first. n <= 0 means all.
func Newest(vs []ResponseView, n int) []ResponseView {
	out := append([]ResponseView(nil), vs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

var reportHeader = []string{
	"Response ID", "Company", "Question ID", "Scale", "Question Text", "User Name", "Rating", "Comment", "Date",
}

var dateLayouts = map[string]string{
	"en": "1/2/2006",
	"pt": "02/01/2006",
}

// DateLayout returns the short date layout of lang, falling back to English.
func DateLayout(lang string) string {
	if l, ok := dateLayouts[lang]; ok {
		return l
	}
	return dateLayouts["en"]
}

// ExportResponsesCSV renders the report. The header row is bare and every
// data field is double-quoted with embedded quotes doubled, so comments with
// commas or newlines survive spreadsheet imports. encoding/csv only quotes on
// demand, hence the local writer.
func ExportResponsesCSV(vs []ResponseView, lang string, loc *time.Location) []byte {
	if loc == nil {
		loc = time.UTC
	}
	layout := DateLayout(lang)
	buf := &bytes.Buffer{}
	buf.WriteString(strings.Join(reportHeader, ","))
	buf.WriteByte('\n')
	for _, v := range vs {
		writeQuoted(buf, []string{
			v.ID,
			v.Company,
			v.QuestionCode,
			v.ScaleType,
			v.QuestionText,
			v.UserName,
			v.Rating.Raw(),
			v.Comment,
			v.CreatedAt.In(loc).Format(layout),
		})
	}
	return buf.Bytes()
}

func writeQuoted(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// ReportFilename is the download name for a report generated at t.
func ReportFilename(t time.Time) string {
	return "nps-report-" + t.Format("2006-01-02") + ".csv"
}
