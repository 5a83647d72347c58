package models

// Task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in-progress"
	TaskCompleted  = "completed"
	TaskBlocked    = "blocked"
)

// Comment statuses. A comment is pending until a read drains it to the agent.
const (
	CommentPending = "pending"
	CommentSent    = "sent"
)

// ValidTaskStatus reports whether s is one of the four task statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskBlocked:
		return true
	}
	return false
}

// Task is one step in a task list.
type Task struct {
	ID          string `json:"id"`
	ListID      string `json:"-"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Position    int    `json:"-"`
}

// TaskComment is user feedback on a single task, delivered to the agent on
// the next read of the list.
type TaskComment struct {
	ID                  string `json:"id"`
	TaskID              string `json:"taskId"`
	RevisedPart         string `json:"revisedPart"`
	RevisorInstructions string `json:"revisorInstructions"`
	Status              string `json:"status"`
	CreatedAt           int64  `json:"-"`
}

// TaskList is a non-blocking multi-step session. Once Closed no task
// mutation is accepted.
type TaskList struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Closed    bool          `json:"closed"`
	CreatedAt int64         `json:"-"`
	Tasks     []Task        `json:"tasks"`
	Comments  []TaskComment `json:"comments,omitempty"`
}

// TaskSummary counts tasks per status for the close result.
type TaskSummary struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Blocked    int `json:"blocked"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
}

// Summarize tallies the tasks of a list.
func Summarize(tasks []Task) TaskSummary {
	s := TaskSummary{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case TaskCompleted:
			s.Completed++
		case TaskBlocked:
			s.Blocked++
		case TaskInProgress:
			s.InProgress++
		default:
			s.Pending++
		}
	}
	return s
}
