package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seamless-agent/console/internal/broker"
	"github.com/seamless-agent/console/internal/models"
	"github.com/seamless-agent/console/internal/review"
	"github.com/seamless-agent/console/internal/store"
	"github.com/seamless-agent/console/internal/tasklist"
	"github.com/seamless-agent/console/internal/tools"
	"github.com/seamless-agent/console/internal/ui"
)

const testToken = "test-session-token-1234567890"

// autoSurface answers every question as soon as it is shown, so the
// blocking endpoints return without a human in the loop.
type autoSurface struct {
	b      *broker.Broker
	answer string
}

func (s *autoSurface) Post(m ui.Message) {
	if q, ok := m.(ui.ShowQuestion); ok {
		go s.b.Resolve(q.RequestID, s.answer)
	}
}
func (s *autoSurface) Visible() bool { return true }
func (s *autoSurface) Focus() error  { return nil }
func (s *autoSurface) Notify()       {}

// autoPanels approves every review on open.
type autoPanels struct {
	m *review.Manager
}

func (p *autoPanels) Open(r *models.StoredInteraction) error {
	go p.m.Resolve(r.ID, models.StatusApproved, nil)
	return nil
}
func (p *autoPanels) CloseIfOpen(string) {}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := store.Open(filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	history := store.NewInteractionStore(db, 0)
	attachments := broker.NewAttachments(t.TempDir(), time.Minute)

	surface := &autoSurface{answer: "ship it"}
	b := broker.New(surface, history, attachments, logger)
	surface.b = b

	panels := &autoPanels{}
	reviews := review.New(history, panels, b, logger)
	panels.m = reviews

	tasks := tasklist.New(store.NewTaskListStore(db), b, logger)
	svc := tools.New(b, reviews, tasks, nil, logger)

	return NewRouter(svc, 4242, testToken, logger)
}

func doJSON(t *testing.T, h http.Handler, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsUnauthenticated(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
		Port   int    `json:"port"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Port != 4242 {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthRejection(t *testing.T) {
	h := newTestRouter(t)

	t.Run("missing token", func(t *testing.T) {
		rec := doJSON(t, h, "/ask_user", "", `{"question":"q"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "error") {
			t.Errorf("body = %s, want JSON error", rec.Body.String())
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		rec := doJSON(t, h, "/ask_user", "not-the-token", `{"question":"q"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("fallback header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/ask_user", strings.NewReader(`{"question":"q"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(TokenHeader, testToken)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 via fallback header", rec.Code)
		}
	})
}

func TestBodyLadder(t *testing.T) {
	h := newTestRouter(t)

	t.Run("unsupported media type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/ask_user", strings.NewReader("question=q"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+testToken)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnsupportedMediaType {
			t.Errorf("status = %d, want 415", rec.Code)
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		var buf bytes.Buffer
		buf.WriteString(`{"question":"`)
		buf.Write(bytes.Repeat([]byte("a"), MaxRequestBodyBytes+1))
		buf.WriteString(`"}`)
		rec := doJSON(t, h, "/ask_user", testToken, buf.String())
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := doJSON(t, h, "/ask_user", testToken, `{"question":`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestAskUserEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "/ask_user", testToken, `{"question":"Deploy now?","agentName":"Deployer"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Responded || resp.Response != "ship it" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAskUserRequiresQuestion(t *testing.T) {
	h := newTestRouter(t)
	rec := doJSON(t, h, "/ask_user", testToken, `{"title":"no question"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPlanReviewEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "/plan_review", testToken, `{"plan":"## Step 1","title":"Rollout"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var result models.PlanReviewResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != models.StatusApproved {
		t.Errorf("status = %q", result.Status)
	}
}

func TestTaskEndpointsRoundTrip(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "/tasks/create", testToken,
		`{"title":"Rollout","tasks":[{"title":"stage"},{"title":"prod"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created tasklist.CreateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !created.Created || created.TotalTasks != 2 {
		t.Fatalf("created = %+v", created)
	}

	rec = doJSON(t, h, "/tasks/next", testToken, `{"listId":"`+created.ListID+`"}`)
	var next tasklist.NextResult
	if err := json.Unmarshal(rec.Body.Bytes(), &next); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if next.Task == nil || next.Task.Title != "stage" {
		t.Fatalf("next = %+v", next)
	}

	rec = doJSON(t, h, "/tasks/update", testToken,
		`{"listId":"`+created.ListID+`","taskId":"`+next.Task.ID+`","status":"completed"}`)
	var updated tasklist.UpdateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !updated.Updated || updated.AutoClosed {
		t.Fatalf("updated = %+v", updated)
	}

	rec = doJSON(t, h, "/tasks/close", testToken, `{"listId":"`+created.ListID+`"}`)
	var closed tasklist.CloseResult
	if err := json.Unmarshal(rec.Body.Bytes(), &closed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !closed.Closed || closed.Summary.Completed != 1 || closed.Summary.Pending != 1 {
		t.Fatalf("closed = %+v", closed)
	}
}
