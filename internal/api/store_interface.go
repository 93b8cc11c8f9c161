package api

import "github.com/soaringjerry/npsdesk/internal/services"

// Store is everything the handlers need from persistence.
type Store interface {
	services.AnalyticsStore
	services.ResponseStore
	services.QuestionStore
	services.UserStore
	services.AuthStore
	services.ExportStore
	ListAudit() []services.AuditEntry
}

var _ Store = (*CollectionStore)(nil)
