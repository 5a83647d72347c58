package store

import (
	"testing"

	"github.com/seamless-agent/console/internal/models"
)

func newListStore(t *testing.T) *TaskListStore {
	t.Helper()
	return NewTaskListStore(openTestDB(t))
}

func seedList(t *testing.T, s *TaskListStore) *models.TaskList {
	t.Helper()
	list, err := s.CreateList("Release prep", []NewTaskInput{
		{Title: "Write changelog"},
		{Title: "Tag release", Description: "after CI is green"},
	})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	return list
}

func TestTaskListStore_CreateAndGet(t *testing.T) {
	s := newListStore(t)
	created := seedList(t, s)

	got, err := s.GetList(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected list")
	}
	if got.Closed {
		t.Error("new list should be open")
	}
	if len(got.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(got.Tasks))
	}
	if got.Tasks[0].ID != "task_1" || got.Tasks[1].ID != "task_2" {
		t.Errorf("task ids = %s, %s", got.Tasks[0].ID, got.Tasks[1].ID)
	}
	if got.Tasks[0].Status != models.TaskPending {
		t.Errorf("initial status = %q", got.Tasks[0].Status)
	}
	if got.Tasks[1].Description != "after CI is green" {
		t.Errorf("description = %q", got.Tasks[1].Description)
	}
}

func TestTaskListStore_TwoListsShareDatabase(t *testing.T) {
	s := newListStore(t)
	first := seedList(t, s)

	second, err := s.CreateList("Hotfix", []NewTaskInput{{Title: "patch"}, {Title: "verify"}})
	if err != nil {
		t.Fatalf("create second list: %v", err)
	}
	if len(second.Tasks) != 2 || second.Tasks[0].ID != "task_1" {
		t.Fatalf("second list tasks = %+v", second.Tasks)
	}

	// The shared task_1 id is scoped per list; updates must not cross.
	if _, err := s.UpdateTaskStatus(second.ID, "task_1", models.TaskCompleted); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetList(first.ID)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if got.Tasks[0].Status != models.TaskPending {
		t.Errorf("first list task_1 status = %q, want pending", got.Tasks[0].Status)
	}
}

func TestTaskListStore_GetUnknown(t *testing.T) {
	s := newListStore(t)
	got, err := s.GetList("list_missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestTaskListStore_UpdateTaskStatus(t *testing.T) {
	s := newListStore(t)
	list := seedList(t, s)

	updated, err := s.UpdateTaskStatus(list.ID, "task_1", models.TaskCompleted)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated {
		t.Fatal("expected update to hit a row")
	}

	updated, err = s.UpdateTaskStatus(list.ID, "task_99", models.TaskCompleted)
	if err != nil {
		t.Fatalf("update unknown: %v", err)
	}
	if updated {
		t.Error("unknown task should not report updated")
	}
}

func TestTaskListStore_CloseList(t *testing.T) {
	s := newListStore(t)
	list := seedList(t, s)

	closed, err := s.CloseList(list.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closed {
		t.Fatal("expected close to succeed")
	}

	// Second close is a no-op.
	closed, err = s.CloseList(list.ID)
	if err != nil {
		t.Fatalf("close again: %v", err)
	}
	if closed {
		t.Error("second close should report false")
	}
}

func TestTaskListStore_LatestOpenList(t *testing.T) {
	s := newListStore(t)

	got, err := s.LatestOpenList()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil with no lists")
	}

	first := seedList(t, s)
	if _, err := s.CloseList(first.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err = s.LatestOpenList()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got != nil {
		t.Fatal("closed list should not be returned")
	}
}

func TestTaskListStore_CommentDrain(t *testing.T) {
	s := newListStore(t)
	list := seedList(t, s)

	c, err := s.AddComment(list.ID, "task_1", "changelog format", "use keep-a-changelog")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if c.Status != models.CommentPending {
		t.Errorf("new comment status = %q", c.Status)
	}

	drained, err := s.DrainPendingComments(list.ID)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(drained) != 1 || drained[0].RevisorInstructions != "use keep-a-changelog" {
		t.Fatalf("drained = %v", drained)
	}

	// A second drain finds nothing.
	drained, err = s.DrainPendingComments(list.ID)
	if err != nil {
		t.Fatalf("drain again: %v", err)
	}
	if len(drained) != 0 {
		t.Errorf("second drain = %d comments", len(drained))
	}
}

func TestTaskListStore_DrainMarksOnlyReadComments(t *testing.T) {
	s := newListStore(t)
	list := seedList(t, s)

	if _, err := s.AddComment(list.ID, "task_1", "", "first note"); err != nil {
		t.Fatalf("add: %v", err)
	}
	drained, err := s.DrainPendingComments(list.ID)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(drained) != 1 {
		t.Fatalf("drained = %d", len(drained))
	}

	// A comment added after the drain stays pending for the next read.
	if _, err := s.AddComment(list.ID, "task_2", "", "second note"); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := s.GetList(list.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	statuses := map[string]string{}
	for _, c := range got.Comments {
		statuses[c.RevisorInstructions] = c.Status
	}
	if statuses["first note"] != models.CommentSent {
		t.Errorf("first note status = %q, want sent", statuses["first note"])
	}
	if statuses["second note"] != models.CommentPending {
		t.Errorf("second note status = %q, want pending", statuses["second note"])
	}
}

func TestTaskListStore_RemoveCommentOnlyPending(t *testing.T) {
	s := newListStore(t)
	list := seedList(t, s)

	c, err := s.AddComment(list.ID, "task_1", "", "tighten wording")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.DrainPendingComments(list.ID); err != nil {
		t.Fatalf("drain: %v", err)
	}

	// Sent comments cannot be withdrawn.
	if err := s.RemoveComment(list.ID, c.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, err := s.GetList(list.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Comments) != 1 {
		t.Errorf("sent comment was deleted")
	}
}
