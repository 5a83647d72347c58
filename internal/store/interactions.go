package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seamless-agent/console/internal/models"
)

// DefaultMaxInteractions caps the history log; the oldest records beyond the
// cap are dropped on every insert.
const DefaultMaxInteractions = 50

// InteractionStore persists completed and pending interactions. In-flight
// ask_user requests never reach this table; only terminal ask records and
// plan-review records (which start pending) do.
type InteractionStore struct {
	db  *DB
	max int
}

// NewInteractionStore creates an interaction store. maxRecords <= 0 selects
// DefaultMaxInteractions.
func NewInteractionStore(db *DB, maxRecords int) *InteractionStore {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxInteractions
	}
	return &InteractionStore{db: db, max: maxRecords}
}

// SaveAskUser appends a terminal ask_user record and returns its id.
func (s *InteractionStore) SaveAskUser(question, title, response, agentName, status string, attachments []string) (string, error) {
	id := "int_" + uuid.NewString()
	if attachments == nil {
		attachments = []string{}
	}
	atts, err := json.Marshal(attachments)
	if err != nil {
		return "", fmt.Errorf("marshal attachments: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO interactions (id, kind, created_at, question, response, attachments, agent_name, title, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, models.KindAskUser, time.Now().UnixMilli(), question, response, string(atts), agentName, title, status,
	)
	if err != nil {
		return "", fmt.Errorf("insert ask_user interaction: %w", err)
	}
	return id, s.trim()
}

// SavePlanReview appends a plan_review record in pending status and returns
// its id.
func (s *InteractionStore) SavePlanReview(plan, title, mode string) (string, error) {
	id := "rev_" + uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO interactions (id, kind, created_at, plan, title, mode, required_revisions, status)
		VALUES (?, ?, ?, ?, ?, ?, '[]', ?)`,
		id, models.KindPlanReview, time.Now().UnixMilli(), plan, title, mode, models.StatusPending,
	)
	if err != nil {
		return "", fmt.Errorf("insert plan_review interaction: %w", err)
	}
	return id, s.trim()
}

// UpdateReview moves a plan_review record to status and replaces its
// revisions. Updating an unknown id is a no-op.
func (s *InteractionStore) UpdateReview(id, status string, revisions []models.RequiredRevision) error {
	if revisions == nil {
		revisions = []models.RequiredRevision{}
	}
	revs, err := json.Marshal(revisions)
	if err != nil {
		return fmt.Errorf("marshal revisions: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE interactions SET status = ?, required_revisions = ? WHERE id = ? AND kind = ?`,
		status, string(revs), id, models.KindPlanReview,
	)
	if err != nil {
		return fmt.Errorf("update plan_review %s: %w", id, err)
	}
	return nil
}

// Get returns the interaction with the given id, or nil when absent.
func (s *InteractionStore) Get(id string) (*models.StoredInteraction, error) {
	rows, err := s.db.Query(selectInteraction+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanInteraction(rows)
}

// List returns the newest interactions first, up to limit (0 = all).
func (s *InteractionStore) List(limit int) ([]*models.StoredInteraction, error) {
	q := selectInteraction + ` ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryMany(q, args...)
}

// PendingReviews returns plan reviews still awaiting a user action, newest
// first.
func (s *InteractionStore) PendingReviews() ([]*models.StoredInteraction, error) {
	return s.queryMany(
		selectInteraction+` WHERE kind = ? AND status = ? ORDER BY created_at DESC`,
		models.KindPlanReview, models.StatusPending,
	)
}

// Completed returns every record that is not a pending review, newest first.
func (s *InteractionStore) Completed() ([]*models.StoredInteraction, error) {
	return s.queryMany(
		selectInteraction+` WHERE NOT (kind = ? AND status = ?) ORDER BY created_at DESC`,
		models.KindPlanReview, models.StatusPending,
	)
}

// Delete removes one interaction. Unknown ids are a no-op.
func (s *InteractionStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM interactions WHERE id = ?`, id)
	return err
}

// ClearAll wipes the history log.
func (s *InteractionStore) ClearAll() error {
	_, err := s.db.Exec(`DELETE FROM interactions`)
	return err
}

// trim drops the oldest records beyond the cap. Pending reviews are exempt:
// a live awaiter may still be attached to them.
func (s *InteractionStore) trim() error {
	_, err := s.db.Exec(`
		DELETE FROM interactions WHERE id IN (
			SELECT id FROM interactions
			WHERE NOT (kind = ? AND status = ?)
			ORDER BY created_at DESC
			LIMIT -1 OFFSET ?
		)`,
		models.KindPlanReview, models.StatusPending, s.max,
	)
	if err != nil {
		return fmt.Errorf("trim interactions: %w", err)
	}
	return nil
}

const selectInteraction = `
	SELECT id, kind, created_at, question, response, attachments, agent_name,
	       plan, title, mode, required_revisions, status
	FROM interactions`

func (s *InteractionStore) queryMany(q string, args ...any) ([]*models.StoredInteraction, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.StoredInteraction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func scanInteraction(rows *sql.Rows) (*models.StoredInteraction, error) {
	var in models.StoredInteraction
	var question, response, atts, agent sql.NullString
	var plan, title, mode, revs, status sql.NullString
	if err := rows.Scan(
		&in.ID, &in.Kind, &in.Timestamp, &question, &response, &atts, &agent,
		&plan, &title, &mode, &revs, &status,
	); err != nil {
		return nil, fmt.Errorf("scan interaction: %w", err)
	}

	in.Question = question.String
	in.Response = response.String
	in.AgentName = agent.String
	in.Plan = plan.String
	in.Title = title.String
	in.Mode = mode.String
	in.Status = status.String

	if atts.Valid && atts.String != "" {
		if err := json.Unmarshal([]byte(atts.String), &in.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments for %s: %w", in.ID, err)
		}
	}
	if revs.Valid && revs.String != "" {
		if err := json.Unmarshal([]byte(revs.String), &in.RequiredRevisions); err != nil {
			return nil, fmt.Errorf("decode revisions for %s: %w", in.ID, err)
		}
	}
	return &in, nil
}
