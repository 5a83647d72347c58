package models

// Ask-user record statuses (history only; plan reviews use the review
// status set).
const (
	AskCompleted = "completed"
	AskCancelled = "cancelled"
)

// UserResponse is the outcome of one ask_user exchange as returned to the
// calling agent. Responded=false means the response text is a cancellation
// or error marker, never a real answer.
type UserResponse struct {
	Responded   bool     `json:"responded"`
	Response    string   `json:"response"`
	Attachments []string `json:"attachments"`
}

// PlanReviewResult is the outcome of one plan/walkthrough review as returned
// to the calling agent. Status is always one of approved,
// recreateWithChanges, acknowledged or cancelled; anything else collapses to
// cancelled before it reaches the caller.
type PlanReviewResult struct {
	Status            string             `json:"status"`
	RequiredRevisions []RequiredRevision `json:"requiredRevisions"`
	ReviewID          string             `json:"reviewId"`
}
