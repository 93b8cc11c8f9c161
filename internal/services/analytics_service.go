package services

import (
	"math"
	"sort"

	"github.com/soaringjerry/npsdesk/internal/models"
)

// AnalyticsStore is the read side the analytics views need, scoped by company.
type AnalyticsStore interface {
	ListQuestions(company string) []models.Question
	ListResponses(company string) []models.Response
	ListUsers(company string) []models.User
}

// Stats is the satisfaction breakdown of a response set. Percentages are
// rounded independently and need not sum to 100.
type Stats struct {
	Total          int `json:"total"`
	Good           int `json:"good"`
	Regular        int `json:"regular"`
	Bad            int `json:"bad"`
	GoodPercent    int `json:"goodPercent"`
	RegularPercent int `json:"regularPercent"`
	BadPercent     int `json:"badPercent"`
	// NPS is the share of good ratings, the headline figure of the dashboards.
	NPS int `json:"nps"`
	// NetScore is good share minus bad share, in -100..100.
	NetScore int `json:"netScore"`
}

// Aggregate classifies and tallies rs. It has no side effects.
func Aggregate(rs []models.Response) Stats {
	var st Stats
	for _, r := range rs {
		switch Classify(r.Rating) {
		case Good:
			st.Good++
		case Regular:
			st.Regular++
		case Bad:
			st.Bad++
		}
	}
	st.Total = len(rs)
	st.GoodPercent = percent(st.Good, st.Total)
	st.RegularPercent = percent(st.Regular, st.Total)
	st.BadPercent = percent(st.Bad, st.Total)
	st.NPS = st.GoodPercent
	st.NetScore = percent(st.Good-st.Bad, st.Total)
	return st
}

func percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// Filter narrows a response set before aggregation. Zero fields match
// everything; set fields combine with AND.
type Filter struct {
	QuestionID string       `json:"question,omitempty"`
	Bucket     Satisfaction `json:"rating,omitempty"`
	Value      string       `json:"value,omitempty"`
}

// ParseFilter builds a Filter from query values where "" and "all" mean any.
func ParseFilter(question, rating, value string) (Filter, error) {
	var f Filter
	if question != "all" {
		f.QuestionID = question
	}
	if rating != "" && rating != "all" {
		b, ok := ParseSatisfaction(rating)
		if !ok {
			return Filter{}, NewInvalidError("rating filter must be good, regular, bad or all")
		}
		f.Bucket = b
	}
	if value != "all" {
		f.Value = value
	}
	return f, nil
}

// Match reports whether r passes every set predicate.
func (f Filter) Match(r models.Response) bool {
	if f.QuestionID != "" && r.QuestionID != f.QuestionID {
		return false
	}
	if f.Bucket != "" && Classify(r.Rating) != f.Bucket {
		return false
	}
	if f.Value != "" && r.Rating.Raw() != f.Value {
		return false
	}
	return true
}

// Apply returns the matching responses in input order.
func (f Filter) Apply(rs []models.Response) []models.Response {
	out := make([]models.Response, 0, len(rs))
	for _, r := range rs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// QuestionStat is the per-question breakdown used by the performance ranking.
type QuestionStat struct {
	Question models.Question `json:"question"`
	Stats    Stats           `json:"stats"`
	// Score is the good share of this question's responses.
	Score int `json:"score"`
}

// QuestionStats aggregates each question's responses, in question order.
// Responses to deleted questions are ignored here.
func QuestionStats(qs []models.Question, rs []models.Response) []QuestionStat {
	byQuestion := map[string][]models.Response{}
	for _, r := range rs {
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
	}
	out := make([]QuestionStat, 0, len(qs))
	for _, q := range qs {
		st := Aggregate(byQuestion[q.ID])
		out = append(out, QuestionStat{Question: q, Stats: st, Score: st.GoodPercent})
	}
	return out
}

// Ranking orders question stats by score, best first; ties keep their order.
func Ranking(stats []QuestionStat) []QuestionStat {
	out := append([]QuestionStat(nil), stats...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Summary holds the headline counters of the admin dashboard and reports page.
type Summary struct {
	TotalQuestions  int `json:"totalQuestions"`
	ActiveQuestions int `json:"activeQuestions"`
	TotalResponses  int `json:"totalResponses"`
	TotalUsers      int `json:"totalUsers"`
	Good            int `json:"goodResponses"`
	Regular         int `json:"regularResponses"`
	Bad             int `json:"badResponses"`
	NPS             int `json:"npsScore"`
}

// Summarize counts questions, participants (role user only) and rating buckets.
func Summarize(qs []models.Question, rs []models.Response, us []models.User) Summary {
	st := Aggregate(rs)
	sum := Summary{
		TotalQuestions: len(qs),
		TotalResponses: st.Total,
		Good:           st.Good,
		Regular:        st.Regular,
		Bad:            st.Bad,
		NPS:            st.NPS,
	}
	for _, q := range qs {
		if q.IsActive {
			sum.ActiveQuestions++
		}
	}
	for _, u := range us {
		if u.Role == models.RoleUser {
			sum.TotalUsers++
		}
	}
	return sum
}

// Analysis is the analytics page payload: filtered totals plus the
// unfiltered per-question ranking.
type Analysis struct {
	Filter    Filter         `json:"filter"`
	Stats     Stats          `json:"stats"`
	Questions []QuestionStat `json:"questions"`
}

// Analyze recomputes everything from the inputs.
func Analyze(qs []models.Question, rs []models.Response, f Filter) Analysis {
	return Analysis{
		Filter:    f,
		Stats:     Aggregate(f.Apply(rs)),
		Questions: Ranking(QuestionStats(qs, rs)),
	}
}

type AnalyticsService struct {
	store AnalyticsStore
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func (s *AnalyticsService) Analyze(company string, f Filter) Analysis {
	return Analyze(s.store.ListQuestions(company), s.store.ListResponses(company), f)
}

func (s *AnalyticsService) Questions(company string) []QuestionStat {
	return Ranking(QuestionStats(s.store.ListQuestions(company), s.store.ListResponses(company)))
}

func (s *AnalyticsService) Summary(company string) Summary {
	return Summarize(s.store.ListQuestions(company), s.store.ListResponses(company), s.store.ListUsers(company))
}

// AdminDashboard is the summary plus the newest responses.
type AdminDashboard struct {
	Summary Summary        `json:"summary"`
	Recent  []ResponseView `json:"recent"`
}

func (s *AnalyticsService) AdminDashboard(company string, recent int) AdminDashboard {
	qs := s.store.ListQuestions(company)
	rs := s.store.ListResponses(company)
	return AdminDashboard{
		Summary: Summarize(qs, rs, s.store.ListUsers(company)),
		Recent:  Newest(JoinResponses(qs, rs), recent),
	}
}
