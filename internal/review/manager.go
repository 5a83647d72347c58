// Package review runs the plan and walkthrough review lifecycle: a review is
// created pending, shown in a panel, and settled exactly once by a user
// action, an agent cancellation, or a panel failure.
package review

import (
	"context"
	"log/slog"
	"sync"

	"github.com/seamless-agent/console/internal/models"
	"github.com/seamless-agent/console/internal/store"
)

// PanelOpener shows review panels on the host surface.
type PanelOpener interface {
	// Open shows (or reveals) the panel for a review. An error means the
	// panel could not be created at all.
	Open(review *models.StoredInteraction) error
	// CloseIfOpen dismisses the panel for a review when one is showing.
	CloseIfOpen(reviewID string)
}

// Refresher is notified when the set of pending reviews changes so the home
// view can be recomputed.
type Refresher interface {
	Refresh()
}

type awaiter struct {
	done chan models.PlanReviewResult
}

// Manager owns the live awaiters for pending reviews. The persisted record
// is the source of truth for status; the awaiter only exists while an agent
// is blocked on the outcome.
type Manager struct {
	store   *store.InteractionStore
	panels  PanelOpener
	surface Refresher
	logger  *slog.Logger

	mu       sync.Mutex
	awaiters map[string]*awaiter
}

func New(st *store.InteractionStore, panels PanelOpener, surface Refresher, logger *slog.Logger) *Manager {
	return &Manager{
		store:    st,
		panels:   panels,
		surface:  surface,
		logger:   logger,
		awaiters: make(map[string]*awaiter),
	}
}

// Open creates a pending review, shows its panel, and blocks until it
// settles. The record is persisted before the panel opens so a panel failure
// still leaves an auditable row. When ctx is cancelled first the review is
// closed on the agent's behalf and a cancelled result is returned.
func (m *Manager) Open(ctx context.Context, plan, title, mode string) (models.PlanReviewResult, error) {
	id, err := m.store.SavePlanReview(plan, title, mode)
	if err != nil {
		return models.PlanReviewResult{}, err
	}

	a := &awaiter{done: make(chan models.PlanReviewResult, 1)}
	m.mu.Lock()
	m.awaiters[id] = a
	m.mu.Unlock()

	record := &models.StoredInteraction{ID: id, Kind: models.KindPlanReview, Plan: plan, Title: title, Mode: mode, Status: models.StatusPending}
	if err := m.panels.Open(record); err != nil {
		m.logger.Error("open review panel", "review_id", id, "error", err)
		m.settle(id, models.StatusClosed, models.StatusCancelled, nil)
		return <-a.done, nil
	}

	m.surface.Refresh()
	m.logger.Info("review opened", "review_id", id, "mode", mode)

	select {
	case result := <-a.done:
		return result, nil
	case <-ctx.Done():
		m.CancelByAgent(id)
		return <-a.done, nil
	}
}

// Reopen reattaches a panel to a review that is still pending, typically
// after the user dismissed the panel and picks it back up from the home
// view. It never creates a
// second awaiter; an unknown or already settled id reports false.
func (m *Manager) Reopen(id string) (bool, error) {
	record, err := m.store.Get(id)
	if err != nil {
		return false, err
	}
	if record == nil || record.Kind != models.KindPlanReview || record.Status != models.StatusPending {
		return false, nil
	}
	if err := m.panels.Open(record); err != nil {
		return false, err
	}
	return true, nil
}

// Resolve settles a review from a user action. Actions outside the known
// terminal set persist as closed and reach the agent as cancelled. Comments
// are carried for every action, not just recreateWithChanges: a user can
// approve or acknowledge with notes attached. Settling an unknown or
// already settled id reports false.
func (m *Manager) Resolve(id, action string, revisions []models.RequiredRevision) bool {
	recordStatus := models.StatusClosed
	toolStatus := models.StatusCancelled
	switch action {
	case models.StatusApproved, models.StatusRecreateWithChanges, models.StatusAcknowledged:
		recordStatus = action
		toolStatus = action
	}
	return m.settle(id, recordStatus, toolStatus, revisions)
}

// CancelByAgent settles a review because the calling agent stopped waiting.
func (m *Manager) CancelByAgent(id string) bool {
	return m.settle(id, models.StatusClosed, models.StatusCancelled, nil)
}

// CancelAll settles every review with a live awaiter, for shutdown.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.awaiters))
	for id := range m.awaiters {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.CancelByAgent(id)
	}
}

// settle persists the terminal status, dismisses the panel, and delivers the
// result to the awaiter when one is still attached. The awaiter is removed
// under the lock first, so a second settle of the same id is a no-op for
// delivery and reports false.
func (m *Manager) settle(id, recordStatus, toolStatus string, revisions []models.RequiredRevision) bool {
	m.mu.Lock()
	a, live := m.awaiters[id]
	delete(m.awaiters, id)
	m.mu.Unlock()

	record, err := m.store.Get(id)
	if err != nil {
		m.logger.Error("load review", "review_id", id, "error", err)
	}
	persisted := record != nil && record.Kind == models.KindPlanReview && record.Status == models.StatusPending
	if persisted {
		if err := m.store.UpdateReview(id, recordStatus, revisions); err != nil {
			m.logger.Error("update review", "review_id", id, "error", err)
		}
	}

	m.panels.CloseIfOpen(id)
	m.surface.Refresh()

	if live {
		if revisions == nil {
			revisions = []models.RequiredRevision{}
		}
		a.done <- models.PlanReviewResult{Status: toolStatus, RequiredRevisions: revisions, ReviewID: id}
	}
	if persisted || live {
		m.logger.Info("review settled", "review_id", id, "status", recordStatus)
		return true
	}
	return false
}
