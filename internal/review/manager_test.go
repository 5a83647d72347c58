package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/seamless-agent/console/internal/models"
	"github.com/seamless-agent/console/internal/store"
)

type fakePanels struct {
	mu      sync.Mutex
	opened  []string
	closed  []string
	openErr error
}

func (f *fakePanels) Open(r *models.StoredInteraction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = append(f.opened, r.ID)
	return nil
}

func (f *fakePanels) CloseIfOpen(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, id)
}

func (f *fakePanels) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opened)
}

type noopRefresher struct{}

func (noopRefresher) Refresh() {}

func newTestManager(t *testing.T) (*Manager, *fakePanels, *store.InteractionStore) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.NewInteractionStore(db, 0)
	panels := &fakePanels{}
	return New(st, panels, noopRefresher{}, slog.New(slog.NewTextHandler(io.Discard, nil))), panels, st
}

// startReview opens a review in the background and waits for it to persist.
func startReview(t *testing.T, m *Manager, st *store.InteractionStore, mode string) (string, <-chan models.PlanReviewResult) {
	t.Helper()
	out := make(chan models.PlanReviewResult, 1)
	go func() {
		result, err := m.Open(context.Background(), "## Plan", "Refactor storage", mode)
		if err != nil {
			t.Errorf("open: %v", err)
		}
		out <- result
	}()

	deadline := time.After(2 * time.Second)
	for {
		pending, err := st.PendingReviews()
		if err != nil {
			t.Fatalf("pending: %v", err)
		}
		if len(pending) == 1 {
			id := pending[0].ID
			// Wait for the awaiter too so a resolve cannot slip in between
			// persistence and registration.
			for {
				m.mu.Lock()
				_, attached := m.awaiters[id]
				m.mu.Unlock()
				if attached {
					return id, out
				}
				select {
				case <-deadline:
					t.Fatal("awaiter never attached")
				case <-time.After(time.Millisecond):
				}
			}
		}
		select {
		case <-deadline:
			t.Fatal("review never became pending")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestManager_ApproveFlow(t *testing.T) {
	m, panels, st := newTestManager(t)
	id, out := startReview(t, m, st, models.ModeReview)

	if !m.Resolve(id, models.StatusApproved, nil) {
		t.Fatal("resolve reported false")
	}
	result := <-out
	if result.Status != models.StatusApproved {
		t.Errorf("status = %q", result.Status)
	}
	if result.ReviewID != id {
		t.Errorf("review id = %q, want %q", result.ReviewID, id)
	}

	record, err := st.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != models.StatusApproved {
		t.Errorf("persisted status = %q", record.Status)
	}
	if panels.openCount() != 1 {
		t.Errorf("panel opens = %d", panels.openCount())
	}
}

func TestManager_RecreateWithChangesCarriesRevisions(t *testing.T) {
	m, _, st := newTestManager(t)
	id, out := startReview(t, m, st, models.ModeReview)

	revs := []models.RequiredRevision{{RevisedPart: "step 3", RevisorInstructions: "split into two migrations"}}
	m.Resolve(id, models.StatusRecreateWithChanges, revs)

	result := <-out
	if result.Status != models.StatusRecreateWithChanges {
		t.Errorf("status = %q", result.Status)
	}
	if len(result.RequiredRevisions) != 1 || result.RequiredRevisions[0].RevisedPart != "step 3" {
		t.Errorf("revisions = %v", result.RequiredRevisions)
	}
}

func TestManager_UnknownActionCollapsesToCancelled(t *testing.T) {
	m, _, st := newTestManager(t)
	id, out := startReview(t, m, st, models.ModeReview)

	// Comments ride along even when the action itself is unrecognized.
	revs := []models.RequiredRevision{{RevisorInstructions: "note for the agent"}}
	m.Resolve(id, "some-future-action", revs)

	result := <-out
	if result.Status != models.StatusCancelled {
		t.Errorf("tool status = %q, want cancelled", result.Status)
	}
	if len(result.RequiredRevisions) != 1 || result.RequiredRevisions[0].RevisorInstructions != "note for the agent" {
		t.Errorf("revisions = %v", result.RequiredRevisions)
	}

	record, err := st.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != models.StatusClosed {
		t.Errorf("persisted status = %q, want closed", record.Status)
	}
}

func TestManager_ApproveCarriesComments(t *testing.T) {
	m, _, st := newTestManager(t)
	id, out := startReview(t, m, st, models.ModeReview)

	// A user can approve with notes attached; they must reach the agent and
	// the history record.
	revs := []models.RequiredRevision{{RevisedPart: "step 1", RevisorInstructions: "rename the migration"}}
	m.Resolve(id, models.StatusApproved, revs)

	result := <-out
	if result.Status != models.StatusApproved {
		t.Errorf("status = %q", result.Status)
	}
	if len(result.RequiredRevisions) != 1 || result.RequiredRevisions[0].RevisedPart != "step 1" {
		t.Errorf("revisions = %v", result.RequiredRevisions)
	}

	record, err := st.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(record.RequiredRevisions) != 1 || record.RequiredRevisions[0].RevisorInstructions != "rename the migration" {
		t.Errorf("persisted revisions = %v", record.RequiredRevisions)
	}
}

func TestManager_SettleIsIdempotent(t *testing.T) {
	m, _, st := newTestManager(t)
	id, out := startReview(t, m, st, models.ModeWalkthrough)

	if !m.Resolve(id, models.StatusAcknowledged, nil) {
		t.Fatal("first resolve failed")
	}
	if m.Resolve(id, models.StatusApproved, nil) {
		t.Error("second resolve should be a no-op")
	}

	result := <-out
	if result.Status != models.StatusAcknowledged {
		t.Errorf("status = %q, first settle should win", result.Status)
	}

	record, err := st.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != models.StatusAcknowledged {
		t.Errorf("persisted status = %q", record.Status)
	}
}

func TestManager_AgentCancellation(t *testing.T) {
	m, panels, st := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan models.PlanReviewResult, 1)
	go func() {
		result, _ := m.Open(ctx, "plan", "t", models.ModeReview)
		out <- result
	}()

	deadline := time.After(2 * time.Second)
	var id string
	for id == "" {
		pending, err := st.PendingReviews()
		if err != nil {
			t.Fatalf("pending: %v", err)
		}
		if len(pending) == 1 {
			id = pending[0].ID
			break
		}
		select {
		case <-deadline:
			t.Fatal("review never became pending")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	result := <-out
	if result.Status != models.StatusCancelled {
		t.Errorf("status = %q", result.Status)
	}

	record, err := st.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != models.StatusClosed {
		t.Errorf("persisted status = %q, want closed", record.Status)
	}

	panels.mu.Lock()
	closed := len(panels.closed)
	panels.mu.Unlock()
	if closed == 0 {
		t.Error("panel was never dismissed")
	}
}

func TestManager_PanelFailureSettlesCancelled(t *testing.T) {
	m, panels, _ := newTestManager(t)
	panels.openErr = errors.New("webview crashed")

	result, err := m.Open(context.Background(), "plan", "t", models.ModeReview)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if result.Status != models.StatusCancelled {
		t.Errorf("status = %q", result.Status)
	}
}

func TestManager_ReopenReattachesWithoutNewAwaiter(t *testing.T) {
	m, panels, st := newTestManager(t)
	id, out := startReview(t, m, st, models.ModeReview)

	ok, err := m.Reopen(id)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !ok {
		t.Fatal("reopen of a pending review should succeed")
	}
	if panels.openCount() != 2 {
		t.Errorf("panel opens = %d, want 2", panels.openCount())
	}

	// Resolution still settles the original awaiter exactly once.
	m.Resolve(id, models.StatusApproved, nil)
	result := <-out
	if result.Status != models.StatusApproved {
		t.Errorf("status = %q", result.Status)
	}

	// Settled reviews cannot be reopened.
	ok, err = m.Reopen(id)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if ok {
		t.Error("reopen of a settled review should report false")
	}
}

func TestManager_ReopenUnknown(t *testing.T) {
	m, _, _ := newTestManager(t)
	ok, err := m.Reopen("rev_missing")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if ok {
		t.Error("unknown id should report false")
	}
}
