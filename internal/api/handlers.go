package api

import (
	"net/http"

	"github.com/seamless-agent/console/internal/store"
	"github.com/seamless-agent/console/internal/tools"
)

// Handler serves the agent bridge endpoints. Every handler decodes a JSON
// body, delegates to the tools layer, and writes the result as JSON; the
// blocking endpoints hold the connection open until the user acts.
type Handler struct {
	tools *tools.Service
	port  int
}

func NewHandler(svc *tools.Service, port int) *Handler {
	return &Handler{tools: svc, port: port}
}

// Health reports liveness plus the bound port, unauthenticated.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "port": h.port})
}

func (h *Handler) AskUser(w http.ResponseWriter, r *http.Request) {
	var in tools.AskUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		return
	}
	resp, err := h.tools.AskUser(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) PlanReview(w http.ResponseWriter, r *http.Request) {
	var in tools.PlanReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		return
	}
	result, err := h.tools.PlanReview(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type createTaskListRequest struct {
	Title string `json:"title"`
	Tasks []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"tasks"`
}

func (h *Handler) CreateTaskList(w http.ResponseWriter, r *http.Request) {
	var in createTaskListRequest
	if err := decodeJSON(w, r, &in); err != nil {
		return
	}
	tasks := make([]store.NewTaskInput, 0, len(in.Tasks))
	for _, t := range in.Tasks {
		tasks = append(tasks, store.NewTaskInput{Title: t.Title, Description: t.Description})
	}
	result, err := h.tools.CreateTaskList(in.Title, tasks)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type listRequest struct {
	ListID string `json:"listId"`
}

func (h *Handler) GetNextTask(w http.ResponseWriter, r *http.Request) {
	var in listRequest
	if err := decodeJSON(w, r, &in); err != nil {
		return
	}
	result, err := h.tools.GetNextTask(in.ListID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type updateTaskRequest struct {
	ListID string `json:"listId"`
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var in updateTaskRequest
	if err := decodeJSON(w, r, &in); err != nil {
		return
	}
	result, err := h.tools.UpdateTaskStatus(in.ListID, in.TaskID, in.Status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CloseTaskList(w http.ResponseWriter, r *http.Request) {
	var in listRequest
	if err := decodeJSON(w, r, &in); err != nil {
		return
	}
	result, err := h.tools.CloseTaskList(in.ListID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
