// Package tasklist implements the non-blocking task session flow. Unlike
// ask_user, task operations return immediately; the user annotates tasks in
// the console and the agent picks the feedback up on its next read.
package tasklist

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/seamless-agent/console/internal/models"
	"github.com/seamless-agent/console/internal/store"
)

// Results carry domain failures in the Error field rather than as Go errors:
// a closed list or an unknown id is a normal answer for the agent, not a
// fault. Go errors are reserved for storage problems.

type CreateResult struct {
	Created    bool   `json:"created"`
	ListID     string `json:"listId,omitempty"`
	Title      string `json:"title,omitempty"`
	TotalTasks int    `json:"totalTasks,omitempty"`
	Error      string `json:"error,omitempty"`
}

type NextResult struct {
	ListID   string               `json:"listId,omitempty"`
	Closed   bool                 `json:"closed"`
	Done     bool                 `json:"done"`
	Task     *models.Task         `json:"task"`
	Comments []models.TaskComment `json:"comments"`
	Error    string               `json:"error,omitempty"`
}

type UpdateResult struct {
	ListID     string `json:"listId,omitempty"`
	TaskID     string `json:"taskId,omitempty"`
	Updated    bool   `json:"updated"`
	Status     string `json:"status,omitempty"`
	AutoClosed bool   `json:"autoClosed"`
	Error      string `json:"error,omitempty"`
}

type CloseResult struct {
	ListID                   string               `json:"listId,omitempty"`
	Closed                   bool                 `json:"closed"`
	Summary                  *models.TaskSummary  `json:"summary,omitempty"`
	RemainingPendingComments []models.TaskComment `json:"remainingPendingComments"`
	Error                    string               `json:"error,omitempty"`
}

// Refresher is poked after any mutation so the console can redraw.
type Refresher interface {
	Refresh()
}

type Service struct {
	store   *store.TaskListStore
	surface Refresher
	logger  *slog.Logger
}

func New(st *store.TaskListStore, surface Refresher, logger *slog.Logger) *Service {
	return &Service{store: st, surface: surface, logger: logger}
}

// Create starts a new task session.
func (s *Service) Create(title string, tasks []store.NewTaskInput) (CreateResult, error) {
	if strings.TrimSpace(title) == "" {
		return CreateResult{Error: "title is required"}, nil
	}
	if len(tasks) == 0 {
		return CreateResult{Error: "at least one task is required"}, nil
	}
	for _, t := range tasks {
		if strings.TrimSpace(t.Title) == "" {
			return CreateResult{Error: "every task needs a title"}, nil
		}
	}

	list, err := s.store.CreateList(title, tasks)
	if err != nil {
		return CreateResult{}, err
	}
	s.surface.Refresh()
	s.logger.Info("task list created", "list_id", list.ID, "tasks", len(list.Tasks))
	return CreateResult{Created: true, ListID: list.ID, Title: list.Title, TotalTasks: len(list.Tasks)}, nil
}

// Next returns the task the agent should work on, draining any pending user
// comments along the way: the first in-progress task if one exists,
// otherwise the first task that is not completed. An empty listID targets
// the most recent open list. Done=true with a nil task means every task is
// completed.
func (s *Service) Next(listID string) (NextResult, error) {
	list, err := s.lookup(listID)
	if err != nil {
		return NextResult{}, err
	}
	if list == nil {
		return NextResult{ListID: listID, Error: "task list not found"}, nil
	}
	if list.Closed {
		return NextResult{ListID: list.ID, Closed: true, Comments: []models.TaskComment{}}, nil
	}

	comments, err := s.store.DrainPendingComments(list.ID)
	if err != nil {
		return NextResult{}, err
	}
	if comments == nil {
		comments = []models.TaskComment{}
	}

	// An in-progress task wins over earlier pending or blocked ones: the
	// agent resumes what it started before picking up new work.
	var fallback *models.Task
	for i := range list.Tasks {
		t := list.Tasks[i]
		switch t.Status {
		case models.TaskInProgress:
			return NextResult{ListID: list.ID, Task: &t, Comments: comments}, nil
		case models.TaskCompleted:
		default:
			if fallback == nil {
				fallback = &t
			}
		}
	}
	if fallback != nil {
		return NextResult{ListID: list.ID, Task: fallback, Comments: comments}, nil
	}
	return NextResult{ListID: list.ID, Done: true, Comments: comments}, nil
}

// UpdateStatus moves a task to a new status. Completing the last remaining
// task closes the list automatically.
func (s *Service) UpdateStatus(listID, taskID, status string) (UpdateResult, error) {
	if !models.ValidTaskStatus(status) {
		return UpdateResult{ListID: listID, TaskID: taskID, Error: "invalid status: " + status}, nil
	}

	list, err := s.lookup(listID)
	if err != nil {
		return UpdateResult{}, err
	}
	if list == nil {
		return UpdateResult{ListID: listID, TaskID: taskID, Error: "task list not found"}, nil
	}
	if list.Closed {
		return UpdateResult{ListID: list.ID, TaskID: taskID, Error: "task list is closed"}, nil
	}

	updated, err := s.store.UpdateTaskStatus(list.ID, taskID, status)
	if err != nil {
		return UpdateResult{}, err
	}
	if !updated {
		return UpdateResult{ListID: list.ID, TaskID: taskID, Error: "task not found"}, nil
	}

	autoClosed := false
	if status == models.TaskCompleted {
		remaining := 0
		for _, t := range list.Tasks {
			if t.ID != taskID && t.Status != models.TaskCompleted {
				remaining++
			}
		}
		if remaining == 0 {
			if _, err := s.store.CloseList(list.ID); err != nil {
				return UpdateResult{}, err
			}
			autoClosed = true
			s.logger.Info("task list auto-closed", "list_id", list.ID)
		}
	}

	s.surface.Refresh()
	return UpdateResult{ListID: list.ID, TaskID: taskID, Updated: true, Status: status, AutoClosed: autoClosed}, nil
}

// Close ends a task session and reports the final tallies plus any comments
// the agent never picked up.
func (s *Service) Close(listID string) (CloseResult, error) {
	list, err := s.lookup(listID)
	if err != nil {
		return CloseResult{}, err
	}
	if list == nil {
		return CloseResult{ListID: listID, Error: "task list not found"}, nil
	}
	if list.Closed {
		return CloseResult{ListID: list.ID, RemainingPendingComments: []models.TaskComment{}, Error: "task list already closed"}, nil
	}

	remaining, err := s.store.DrainPendingComments(list.ID)
	if err != nil {
		return CloseResult{}, err
	}
	if remaining == nil {
		remaining = []models.TaskComment{}
	}
	if _, err := s.store.CloseList(list.ID); err != nil {
		return CloseResult{}, err
	}

	summary := models.Summarize(list.Tasks)
	s.surface.Refresh()
	s.logger.Info("task list closed", "list_id", list.ID, "completed", summary.Completed, "total", summary.Total)
	return CloseResult{ListID: list.ID, Closed: true, Summary: &summary, RemainingPendingComments: remaining}, nil
}

// Get returns a full list for the console, or nil when unknown.
func (s *Service) Get(listID string) (*models.TaskList, error) {
	return s.lookup(listID)
}

// AddTask appends a task to an open list, for the legacy add_task operation.
func (s *Service) AddTask(listID, title, description string) (*models.Task, error) {
	list, err := s.lookup(listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, fmt.Errorf("task list not found")
	}
	if list.Closed {
		return nil, fmt.Errorf("task list is closed")
	}
	t, err := s.store.AddTask(list.ID, title, description)
	if err != nil {
		return nil, err
	}
	s.surface.Refresh()
	return t, nil
}

// AddComment records user feedback on a task. When reopen is set the task is
// pushed back to pending so the agent revisits it.
func (s *Service) AddComment(listID, taskID, revisedPart, instructions string, reopen bool) (*models.TaskComment, error) {
	c, err := s.store.AddComment(listID, taskID, revisedPart, instructions)
	if err != nil {
		return nil, err
	}
	if reopen {
		if _, err := s.store.UpdateTaskStatus(listID, taskID, models.TaskPending); err != nil {
			return nil, err
		}
	}
	s.surface.Refresh()
	return c, nil
}

// RemoveComment withdraws a comment the agent has not seen yet.
func (s *Service) RemoveComment(listID, commentID string) error {
	if err := s.store.RemoveComment(listID, commentID); err != nil {
		return err
	}
	s.surface.Refresh()
	return nil
}

func (s *Service) lookup(listID string) (*models.TaskList, error) {
	if listID == "" {
		return s.store.LatestOpenList()
	}
	return s.store.GetList(listID)
}
