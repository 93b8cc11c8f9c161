//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("NPS_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

func TestSurveyJourneyIntegration(t *testing.T) {
	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	base := baseURL()

	admin := login(t, client, base, "admin@example.com", "admin123")
	user := login(t, client, base, "user@example.com", "user123")

	code := fmt.Sprintf("IT%d", time.Now().UnixNano()%1_000_000)
	var question struct {
		ID         string `json:"id"`
		QuestionID string `json:"questionId"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/questions", admin, map[string]any{
		"questionId":      code,
		"text":            "How likely are you to recommend us?",
		"scaleType":       "numeric",
		"assignedTo":      "selected",
		"assignedUserIds": []string{"2"},
	}, http.StatusCreated, &question)
	if question.ID == "" || question.QuestionID != code {
		t.Fatalf("unexpected question: %+v", question)
	}

	var mine struct {
		Questions []struct {
			Question struct {
				ID string `json:"id"`
			} `json:"question"`
			Answered bool `json:"answered"`
		} `json:"questions"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/me/questions", user, nil, http.StatusOK, &mine)
	found := false
	for _, q := range mine.Questions {
		if q.Question.ID == question.ID {
			found = true
			if q.Answered {
				t.Fatalf("new question already answered")
			}
		}
	}
	if !found {
		t.Fatalf("assigned question %s not visible to user", question.ID)
	}

	doJSON(t, client, http.MethodPost, base+"/api/me/responses", user, map[string]any{
		"questionId": question.ID,
		"rating":     map[string]any{"type": "numeric", "value": 9},
		"comment":    "integration",
	}, http.StatusCreated, nil)

	// a rating from another scale is rejected
	doJSON(t, client, http.MethodPost, base+"/api/me/responses", user, map[string]any{
		"questionId": question.ID,
		"rating":     map[string]any{"type": "emoji3", "value": "good"},
	}, http.StatusBadRequest, nil)

	var analysis struct {
		Stats struct {
			Total int `json:"total"`
			Good  int `json:"good"`
			NPS   int `json:"nps"`
		} `json:"stats"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/analytics?question="+question.ID, admin, nil, http.StatusOK, &analysis)
	if analysis.Stats.Total != 1 || analysis.Stats.Good != 1 || analysis.Stats.NPS != 100 {
		t.Fatalf("unexpected analytics: %+v", analysis.Stats)
	}

	// users are sent home from admin pages
	resp := get(t, client, base+"/api/analytics", user)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/user" {
		t.Fatalf("expected redirect to /user, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp = get(t, client, base+"/api/reports/export.csv?value=9", admin)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), `"`+code+`"`) {
		t.Fatalf("export does not contain %s:\n%s", code, body)
	}

	doJSON(t, client, http.MethodDelete, base+"/api/questions/"+question.ID, admin, nil, http.StatusNoContent, nil)
}

func login(t *testing.T, client *http.Client, base, email, password string) string {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK, &out)
	if out.Token == "" {
		t.Fatalf("login for %s did not return token", email)
	}
	return out.Token
}

func get(t *testing.T, client *http.Client, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http get %s failed: %v", url, err)
	}
	return resp
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, want int, out any) {
	t.Helper()
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d (want %d) for %s %s: %s", resp.StatusCode, want, method, url, string(bodyBytes))
	}
	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
