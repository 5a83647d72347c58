package models

// Interaction kinds.
const (
	KindAskUser    = "ask_user"
	KindPlanReview = "plan_review"
)

// Plan review modes.
const (
	ModeReview      = "review"
	ModeWalkthrough = "walkthrough"
)

// Plan review statuses. Pending is the only non-terminal status.
const (
	StatusPending             = "pending"
	StatusApproved            = "approved"
	StatusRecreateWithChanges = "recreateWithChanges"
	StatusAcknowledged        = "acknowledged"
	StatusClosed              = "closed"
	StatusCancelled           = "cancelled"
)

// RequiredRevision is one piece of user feedback attached to a plan review:
// the part being revised plus the reviewer's instructions for it.
type RequiredRevision struct {
	RevisedPart         string `json:"revisedPart"`
	RevisorInstructions string `json:"revisorInstructions"`
}

// StoredInteraction is one history record. It is a union of the ask_user and
// plan_review shapes discriminated by Kind; fields not belonging to the kind
// stay zero.
type StoredInteraction struct {
	ID        string `json:"id"`
	Kind      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	// ask_user fields
	Question    string   `json:"question,omitempty"`
	Response    string   `json:"response,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
	AgentName   string   `json:"agentName,omitempty"`

	// plan_review fields
	Plan              string             `json:"plan,omitempty"`
	Title             string             `json:"title,omitempty"`
	Mode              string             `json:"mode,omitempty"`
	RequiredRevisions []RequiredRevision `json:"requiredRevisions,omitempty"`
	Status            string             `json:"status,omitempty"`
}

// TerminalReviewStatus reports whether s is a status a plan review can never
// leave.
func TerminalReviewStatus(s string) bool {
	switch s {
	case StatusApproved, StatusRecreateWithChanges, StatusAcknowledged, StatusClosed, StatusCancelled:
		return true
	}
	return false
}
