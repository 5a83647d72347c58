// Package ui defines the message contract between the backend and the
// console surface (the webview equivalent). The surface renders; everything
// here is data. Messages form a closed union so handlers can switch
// exhaustively on the concrete type.
package ui

// Attachment is the surface-facing view of a file, folder or pasted image
// bundled with a pending request.
type Attachment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URI         string `json:"uri"`
	IsFolder    bool   `json:"isFolder,omitempty"`
	FolderPath  string `json:"folderPath,omitempty"`
	Depth       int    `json:"depth,omitempty"`
	IsTemporary bool   `json:"isTemporary,omitempty"`
}

// Request is one pending human-input request as shown in the console.
type Request struct {
	ID          string       `json:"id"`
	Question    string       `json:"question"`
	Title       string       `json:"title"`
	CreatedAt   int64        `json:"createdAt"`
	Attachments []Attachment `json:"attachments"`
}

// PendingReview is the home-view summary of a plan review awaiting a user
// action.
type PendingReview struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Mode   string `json:"mode"`
	Status string `json:"status"`
}

// Message is implemented by every message the backend can post to the
// surface.
type Message interface {
	messageType() string
}

// ShowQuestion switches the surface to the single-question view.
type ShowQuestion struct {
	RequestID string `json:"requestId"`
	Question  string `json:"question"`
	Title     string `json:"title"`
}

// ShowList switches the surface to the pending-request list view.
type ShowList struct {
	Requests []Request `json:"requests"`
}

// ShowHome switches the surface to the home view: pending requests, pending
// plan reviews and completed history.
type ShowHome struct {
	PendingRequests    []Request       `json:"pendingRequests"`
	PendingPlanReviews []PendingReview `json:"pendingPlanReviews"`
	HistoryCount       int             `json:"historyCount"`
}

// Clear empties the surface (no pending work).
type Clear struct{}

// UpdateAttachments refreshes the attachment strip of one request.
type UpdateAttachments struct {
	RequestID   string       `json:"requestId"`
	Attachments []Attachment `json:"attachments"`
}

// SetBadge updates the pending-work counter on the view container.
type SetBadge struct {
	Count int `json:"count"`
}

func (ShowQuestion) messageType() string      { return "showQuestion" }
func (ShowList) messageType() string          { return "showList" }
func (ShowHome) messageType() string          { return "showHome" }
func (Clear) messageType() string             { return "clear" }
func (UpdateAttachments) messageType() string { return "updateAttachments" }
func (SetBadge) messageType() string          { return "setBadge" }

// Type returns the wire tag for m.
func Type(m Message) string { return m.messageType() }

// Surface is the console view the broker talks to. Implementations render
// messages; Post must not block on user input.
type Surface interface {
	// Post delivers a message to the surface. Delivery is best effort.
	Post(Message)
	// Visible reports whether the surface currently has the user's
	// attention; the broker raises a notification when it does not.
	Visible() bool
	// Focus asks the host to activate the surface, returning an error when
	// the view cannot be resolved within a bounded attempt.
	Focus() error
	// Notify raises an out-of-surface notification that input is required.
	Notify()
}
