// Package broker tracks in-flight ask_user requests and resolves each one at
// most once. A request blocks its caller until the user answers, the agent
// gives up, or the console shuts down.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seamless-agent/console/internal/models"
	"github.com/seamless-agent/console/internal/store"
	"github.com/seamless-agent/console/internal/ui"
)

// ErrSurfaceUnavailable is returned when the console view cannot be focused
// for a new request. Callers fall back to a plain host prompt on it.
var ErrSurfaceUnavailable = errors.New("Agent Console view is not available.")

// CancelReasonAgentStopped is the response text recorded when the calling
// agent abandons a request before the user answers.
const CancelReasonAgentStopped = "Agent stopped the request"

type pendingEntry struct {
	req       ui.Request
	agentName string
	done      chan models.UserResponse
}

// Broker owns the pending-request map. All map access goes through mu; each
// entry's done channel is buffered so resolution never blocks on the waiter.
type Broker struct {
	surface     ui.Surface
	history     *store.InteractionStore
	attachments *Attachments
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingEntry
	order   []string
}

func New(surface ui.Surface, history *store.InteractionStore, attachments *Attachments, logger *slog.Logger) *Broker {
	return &Broker{
		surface:     surface,
		history:     history,
		attachments: attachments,
		logger:      logger,
		pending:     make(map[string]*pendingEntry),
	}
}

func newRequestID() string {
	return fmt.Sprintf("req_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:7])
}

// Ask registers a request and blocks until it resolves. When ctx is
// cancelled first the request is cancelled on the agent's behalf and the
// cancellation outcome is returned.
func (b *Broker) Ask(ctx context.Context, question, title, agentName string) (models.UserResponse, error) {
	if err := b.surface.Focus(); err != nil {
		return models.UserResponse{}, ErrSurfaceUnavailable
	}

	entry := &pendingEntry{
		req: ui.Request{
			ID:        newRequestID(),
			Question:  question,
			Title:     title,
			CreatedAt: time.Now().UnixMilli(),
		},
		agentName: agentName,
		done:      make(chan models.UserResponse, 1),
	}

	b.mu.Lock()
	b.pending[entry.req.ID] = entry
	b.order = append(b.order, entry.req.ID)
	b.refreshLocked()
	b.mu.Unlock()

	if !b.surface.Visible() {
		b.surface.Notify()
	}
	b.logger.Info("request created", "request_id", entry.req.ID, "agent", agentName)

	select {
	case resp := <-entry.done:
		return resp, nil
	case <-ctx.Done():
		// Either the cancel wins or a concurrent resolve already filled the
		// channel; the drain below returns whichever settled first.
		b.Cancel(entry.req.ID, CancelReasonAgentStopped)
		return <-entry.done, nil
	}
}

// Resolve completes a request with the user's answer. It reports false for
// ids that are unknown or already settled, and never settles an id twice.
func (b *Broker) Resolve(id, response string) bool {
	entry, ok := b.take(id)
	if !ok {
		return false
	}

	names := make([]string, 0, len(entry.req.Attachments))
	var tempPaths []string
	for _, a := range entry.req.Attachments {
		names = append(names, a.Name)
		if a.IsTemporary {
			tempPaths = append(tempPaths, a.URI)
		}
	}
	b.attachments.ScheduleCleanup(tempPaths)
	b.record(entry, response, models.AskCompleted, names)

	entry.done <- models.UserResponse{Responded: true, Response: response, Attachments: names}
	b.logger.Info("request resolved", "request_id", id)
	return true
}

// Cancel settles a request without an answer. Unknown ids are a no-op.
func (b *Broker) Cancel(id, reason string) bool {
	entry, ok := b.take(id)
	if !ok {
		return false
	}

	var tempPaths []string
	for _, a := range entry.req.Attachments {
		if a.IsTemporary {
			tempPaths = append(tempPaths, a.URI)
		}
	}
	b.attachments.ScheduleCleanup(tempPaths)
	b.record(entry, reason, models.AskCancelled, nil)

	entry.done <- models.UserResponse{Responded: false, Response: reason, Attachments: []string{}}
	b.logger.Info("request cancelled", "request_id", id, "reason", reason)
	return true
}

// CancelAll settles every pending request with the same reason and returns
// how many were cancelled.
func (b *Broker) CancelAll(reason string) int {
	b.mu.Lock()
	ids := make([]string, len(b.order))
	copy(ids, b.order)
	b.mu.Unlock()

	n := 0
	for _, id := range ids {
		if b.Cancel(id, reason) {
			n++
		}
	}
	return n
}

// take removes a pending entry and recomputes the surface state, all under
// the lock. The caller settles the returned entry exactly once.
func (b *Broker) take(id string) (*pendingEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.pending[id]
	if !ok {
		return nil, false
	}
	delete(b.pending, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.refreshLocked()
	return entry, true
}

func (b *Broker) record(entry *pendingEntry, response, status string, attachments []string) {
	_, err := b.history.SaveAskUser(entry.req.Question, entry.req.Title, response, entry.agentName, status, attachments)
	if err != nil {
		b.logger.Error("save interaction", "request_id", entry.req.ID, "error", err)
	}
}

// SaveImageAttachment decodes a pasted image, stores it as a temp file, and
// attaches it to the request.
func (b *Broker) SaveImageAttachment(requestID, dataURL string) (ui.Attachment, error) {
	path, err := b.attachments.SaveImage(dataURL)
	if err != nil {
		return ui.Attachment{}, err
	}

	att := ui.Attachment{
		ID:          "att_" + uuid.NewString(),
		Name:        filepath.Base(path),
		URI:         path,
		IsTemporary: true,
	}
	if !b.AddAttachment(requestID, att) {
		b.attachments.Remove(path)
		return ui.Attachment{}, fmt.Errorf("unknown request %s", requestID)
	}
	return att, nil
}

// AddAttachment appends an attachment to a pending request and refreshes the
// surface's attachment strip. It reports false for unknown ids.
func (b *Broker) AddAttachment(requestID string, att ui.Attachment) bool {
	b.mu.Lock()
	entry, ok := b.pending[requestID]
	if !ok {
		b.mu.Unlock()
		return false
	}
	entry.req.Attachments = append(entry.req.Attachments, att)
	atts := make([]ui.Attachment, len(entry.req.Attachments))
	copy(atts, entry.req.Attachments)
	b.mu.Unlock()

	b.surface.Post(ui.UpdateAttachments{RequestID: requestID, Attachments: atts})
	return true
}

// RemoveAttachment detaches an attachment from a pending request, deleting
// its temp file when it was a pasted image.
func (b *Broker) RemoveAttachment(requestID, attachmentID string) bool {
	b.mu.Lock()
	entry, ok := b.pending[requestID]
	if !ok {
		b.mu.Unlock()
		return false
	}

	var removed *ui.Attachment
	for i, a := range entry.req.Attachments {
		if a.ID == attachmentID {
			removed = &a
			entry.req.Attachments = append(entry.req.Attachments[:i], entry.req.Attachments[i+1:]...)
			break
		}
	}
	atts := make([]ui.Attachment, len(entry.req.Attachments))
	copy(atts, entry.req.Attachments)
	b.mu.Unlock()

	if removed == nil {
		return false
	}
	if removed.IsTemporary {
		if err := b.attachments.Remove(removed.URI); err != nil {
			b.logger.Error("remove temp attachment", "path", removed.URI, "error", err)
		}
	}
	b.surface.Post(ui.UpdateAttachments{RequestID: requestID, Attachments: atts})
	return true
}

// Pending returns the in-flight requests in creation order.
func (b *Broker) Pending() []ui.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingLocked()
}

// Refresh recomputes the surface state from the current pending set. Other
// components call it after they change home-view inputs such as plan
// reviews or history.
func (b *Broker) Refresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
}

func (b *Broker) pendingLocked() []ui.Request {
	out := make([]ui.Request, 0, len(b.order))
	for _, id := range b.order {
		if e, ok := b.pending[id]; ok {
			out = append(out, e.req)
		}
	}
	return out
}

// refreshLocked enforces the display invariant: home with zero pending
// requests, the single-question view with exactly one, the list with more.
func (b *Broker) refreshLocked() {
	b.surface.Post(ui.SetBadge{Count: len(b.pending)})

	switch len(b.pending) {
	case 0:
		reviews, historyCount := b.homeData()
		b.surface.Post(ui.ShowHome{
			PendingRequests:    []ui.Request{},
			PendingPlanReviews: reviews,
			HistoryCount:       historyCount,
		})
	case 1:
		req := b.pendingLocked()[0]
		b.surface.Post(ui.ShowQuestion{RequestID: req.ID, Question: req.Question, Title: req.Title})
	default:
		b.surface.Post(ui.ShowList{Requests: b.pendingLocked()})
	}
}

func (b *Broker) homeData() ([]ui.PendingReview, int) {
	reviews := []ui.PendingReview{}
	stored, err := b.history.PendingReviews()
	if err != nil {
		b.logger.Error("load pending reviews", "error", err)
	}
	for _, r := range stored {
		reviews = append(reviews, ui.PendingReview{ID: r.ID, Title: r.Title, Mode: r.Mode, Status: r.Status})
	}

	completed, err := b.history.Completed()
	if err != nil {
		b.logger.Error("load history", "error", err)
	}
	return reviews, len(completed)
}
