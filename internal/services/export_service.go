package services

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/soaringjerry/npsdesk/internal/models"
)

type ExportStore interface {
	ListQuestions(company string) []models.Question
	ListResponses(company string) []models.Response
	AllowExport(company string, minInterval time.Duration) bool
	AddAudit(entry AuditEntry)
}

type ExportParams struct {
	Actor    *models.User
	Lang     string
	Location *time.Location
	Filter   Filter
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	// Checksum is the hex SHA-256 of Data, sent alongside downloads.
	Checksum string
	Rows     int
}

type ExportService struct {
	store       ExportStore
	now         func() time.Time
	minInterval time.Duration
}

func NewExportService(store ExportStore, minInterval time.Duration) *ExportService {
	return &ExportService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		minInterval: minInterval,
	}
}

// ExportCSV renders the actor's company report. Exports are rate limited per
// company and recorded in the audit log.
func (s *ExportService) ExportCSV(params ExportParams) (*ExportResult, error) {
	if !Can(params.Actor, ActionExportReports) {
		return nil, NewForbiddenError("forbidden")
	}
	company := params.Actor.Company
	if s.minInterval > 0 && !s.store.AllowExport(company, s.minInterval) {
		return nil, NewTooManyRequestsError("export already requested, try again shortly")
	}
	qs := s.store.ListQuestions(company)
	rs := params.Filter.Apply(s.store.ListResponses(company))
	views := JoinResponses(qs, rs)
	data := ExportResponsesCSV(views, params.Lang, params.Location)
	sum := sha256.Sum256(data)
	now := s.now()
	s.store.AddAudit(AuditEntry{Time: now, Actor: params.Actor.Email, Action: "export_csv", Target: company})
	return &ExportResult{
		Filename:    ReportFilename(now),
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
		Checksum:    hex.EncodeToString(sum[:]),
		Rows:        len(views),
	}, nil
}
