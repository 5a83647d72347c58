package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seamless-agent/console/internal/models"
)

// TaskListStore persists task lists, their tasks and per-task comments.
type TaskListStore struct {
	db *DB
}

func NewTaskListStore(db *DB) *TaskListStore {
	return &TaskListStore{db: db}
}

// NewTaskInput is one task to seed a list with.
type NewTaskInput struct {
	Title       string
	Description string
}

// CreateList inserts a list with its tasks in order. Task ids are
// list-scoped: task_1, task_2, and so on.
func (s *TaskListStore) CreateList(title string, tasks []NewTaskInput) (*models.TaskList, error) {
	id := "list_" + uuid.NewString()
	now := time.Now().UnixMilli()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin create list: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO task_lists (id, title, closed, created_at) VALUES (?, ?, 0, ?)`,
		id, title, now,
	); err != nil {
		return nil, fmt.Errorf("insert task list: %w", err)
	}

	list := &models.TaskList{ID: id, Title: title, CreatedAt: now}
	for i, t := range tasks {
		taskID := fmt.Sprintf("task_%d", i+1)
		if _, err := tx.Exec(
			`INSERT INTO tasks (id, list_id, title, description, status, position) VALUES (?, ?, ?, ?, ?, ?)`,
			taskID, id, t.Title, t.Description, models.TaskPending, i,
		); err != nil {
			return nil, fmt.Errorf("insert task %s: %w", taskID, err)
		}
		list.Tasks = append(list.Tasks, models.Task{
			ID: taskID, ListID: id, Title: t.Title, Description: t.Description,
			Status: models.TaskPending, Position: i,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create list: %w", err)
	}
	return list, nil
}

// GetList returns a list with its tasks and comments, or nil when absent.
func (s *TaskListStore) GetList(id string) (*models.TaskList, error) {
	var list models.TaskList
	err := s.db.QueryRow(
		`SELECT id, title, closed, created_at FROM task_lists WHERE id = ?`, id,
	).Scan(&list.ID, &list.Title, &list.Closed, &list.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select task list %s: %w", id, err)
	}

	list.Tasks, err = s.listTasks(id)
	if err != nil {
		return nil, err
	}
	list.Comments, err = s.listComments(id, "")
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// LatestOpenList returns the most recently created open list, or nil.
func (s *TaskListStore) LatestOpenList() (*models.TaskList, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT id FROM task_lists WHERE closed = 0 ORDER BY created_at DESC LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select open task list: %w", err)
	}
	return s.GetList(id)
}

// UpdateTaskStatus sets one task's status. It reports whether a row changed.
func (s *TaskListStore) UpdateTaskStatus(listID, taskID, status string) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE tasks SET status = ? WHERE list_id = ? AND id = ?`,
		status, listID, taskID,
	)
	if err != nil {
		return false, fmt.Errorf("update task %s/%s: %w", listID, taskID, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AddTask appends a task to the end of a list.
func (s *TaskListStore) AddTask(listID, title, description string) (*models.Task, error) {
	var next int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(position), -1) + 1 FROM tasks WHERE list_id = ?`, listID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("next task position: %w", err)
	}

	t := &models.Task{
		ID:     fmt.Sprintf("task_%d", next+1),
		ListID: listID, Title: title, Description: description,
		Status: models.TaskPending, Position: next,
	}
	_, err = s.db.Exec(
		`INSERT INTO tasks (id, list_id, title, description, status, position) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, listID, title, description, t.Status, next,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// CloseList marks a list closed. It reports whether the list existed and was
// still open.
func (s *TaskListStore) CloseList(id string) (bool, error) {
	res, err := s.db.Exec(`UPDATE task_lists SET closed = 1 WHERE id = ? AND closed = 0`, id)
	if err != nil {
		return false, fmt.Errorf("close task list %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AddComment records user feedback on a task.
func (s *TaskListStore) AddComment(listID, taskID, revisedPart, instructions string) (*models.TaskComment, error) {
	c := &models.TaskComment{
		ID:     "comment_" + uuid.NewString(),
		TaskID: taskID, RevisedPart: revisedPart, RevisorInstructions: instructions,
		Status: models.CommentPending, CreatedAt: time.Now().UnixMilli(),
	}
	_, err := s.db.Exec(
		`INSERT INTO task_comments (id, list_id, task_id, revised_part, revisor_instructions, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, listID, taskID, revisedPart, instructions, c.Status, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

// RemoveComment deletes a pending comment. Sent comments stay.
func (s *TaskListStore) RemoveComment(listID, commentID string) error {
	_, err := s.db.Exec(
		`DELETE FROM task_comments WHERE list_id = ? AND id = ? AND status = ?`,
		listID, commentID, models.CommentPending,
	)
	return err
}

// DrainPendingComments returns the pending comments of a list oldest first
// and marks them sent. Read and mark run in one transaction, and only the
// ids actually read are marked, so concurrent drains never deliver a
// comment twice and never swallow one inserted mid-drain.
func (s *TaskListStore) DrainPendingComments(listID string) ([]models.TaskComment, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin drain: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		selectComment+` WHERE list_id = ? AND status = ? ORDER BY created_at`,
		listID, models.CommentPending,
	)
	if err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}
	comments, err := scanComments(rows)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, nil
	}

	for _, c := range comments {
		if _, err := tx.Exec(
			`UPDATE task_comments SET status = ? WHERE id = ?`,
			models.CommentSent, c.ID,
		); err != nil {
			return nil, fmt.Errorf("mark comment %s sent: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit drain: %w", err)
	}
	return comments, nil
}

func (s *TaskListStore) listTasks(listID string) ([]models.Task, error) {
	rows, err := s.db.Query(
		`SELECT id, list_id, title, COALESCE(description, ''), status, position
		 FROM tasks WHERE list_id = ? ORDER BY position`, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.ListID, &t.Title, &t.Description, &t.Status, &t.Position); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const selectComment = `
	SELECT id, task_id, COALESCE(revised_part, ''), revisor_instructions, status, created_at
	FROM task_comments`

func (s *TaskListStore) listComments(listID, status string) ([]models.TaskComment, error) {
	q := selectComment + ` WHERE list_id = ?`
	args := []any{listID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}
	return scanComments(rows)
}

func scanComments(rows *sql.Rows) ([]models.TaskComment, error) {
	defer rows.Close()

	var out []models.TaskComment
	for rows.Next() {
		var c models.TaskComment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.RevisedPart, &c.RevisorInstructions, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
