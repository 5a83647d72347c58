// Package tools is the agent-facing operation layer shared by the HTTP
// bridge and the MCP server. It validates input, composes display titles,
// and delegates to the broker, review manager and task service.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seamless-agent/console/internal/broker"
	"github.com/seamless-agent/console/internal/models"
	"github.com/seamless-agent/console/internal/review"
	"github.com/seamless-agent/console/internal/store"
	"github.com/seamless-agent/console/internal/tasklist"
)

const (
	defaultAgentName = "Agent"
	defaultAskTitle  = "Confirmation Required"

	// CancelledResponse is the response text an agent sees for a request
	// that ended without an answer.
	CancelledResponse = "Request was cancelled"
)

// Prompter is the fallback input path used when the console surface is not
// available: a plain host prompt with no attachments or history.
type Prompter interface {
	Prompt(ctx context.Context, question string) (answer string, ok bool, err error)
}

type AskUserInput struct {
	Question  string `json:"question"`
	Title     string `json:"title"`
	AgentName string `json:"agentName"`
}

type PlanReviewInput struct {
	Plan  string `json:"plan"`
	Title string `json:"title"`
	Mode  string `json:"mode"`
}

type Service struct {
	broker   *broker.Broker
	reviews  *review.Manager
	tasks    *tasklist.Service
	prompter Prompter
	logger   *slog.Logger
}

func New(b *broker.Broker, r *review.Manager, t *tasklist.Service, p Prompter, logger *slog.Logger) *Service {
	return &Service{broker: b, reviews: r, tasks: t, prompter: p, logger: logger}
}

// AskUser blocks until the user answers or the request is cancelled. The
// console shows the question under "<agentName>: <title>". When the console
// surface cannot be focused the question falls back to a plain host prompt.
func (s *Service) AskUser(ctx context.Context, in AskUserInput) (models.UserResponse, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return models.UserResponse{}, fmt.Errorf("question is required")
	}

	agent := strings.TrimSpace(in.AgentName)
	if agent == "" {
		agent = defaultAgentName
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultAskTitle
	}
	composed := agent + ": " + title

	resp, err := s.broker.Ask(ctx, question, composed, agent)
	if errors.Is(err, broker.ErrSurfaceUnavailable) {
		return s.askFallback(ctx, question)
	}
	if err != nil {
		return models.UserResponse{}, err
	}
	if !resp.Responded && resp.Response == "" {
		resp.Response = CancelledResponse
	}
	return resp, nil
}

func (s *Service) askFallback(ctx context.Context, question string) (models.UserResponse, error) {
	s.logger.Warn("console surface unavailable, using host prompt")
	answer, ok, err := s.prompter.Prompt(ctx, question)
	if err != nil {
		return models.UserResponse{}, err
	}
	if !ok {
		return models.UserResponse{Responded: false, Response: CancelledResponse, Attachments: []string{}}, nil
	}
	return models.UserResponse{Responded: true, Response: answer, Attachments: []string{}}, nil
}

// PlanReview blocks until the review settles. Mode defaults to review;
// walkthrough is the only other accepted mode.
func (s *Service) PlanReview(ctx context.Context, in PlanReviewInput) (models.PlanReviewResult, error) {
	if strings.TrimSpace(in.Plan) == "" {
		return models.PlanReviewResult{}, fmt.Errorf("plan is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Plan Review"
	}
	mode := in.Mode
	switch mode {
	case "":
		mode = models.ModeReview
	case models.ModeReview, models.ModeWalkthrough:
	default:
		return models.PlanReviewResult{}, fmt.Errorf("invalid mode: %s", mode)
	}

	return s.reviews.Open(ctx, in.Plan, title, mode)
}

// CreateTaskList starts a task session.
func (s *Service) CreateTaskList(title string, tasks []store.NewTaskInput) (tasklist.CreateResult, error) {
	return s.tasks.Create(title, tasks)
}

// GetNextTask returns the next open task and drains pending user comments.
func (s *Service) GetNextTask(listID string) (tasklist.NextResult, error) {
	return s.tasks.Next(listID)
}

// UpdateTaskStatus moves a task between statuses, auto-closing the list when
// the last task completes.
func (s *Service) UpdateTaskStatus(listID, taskID, status string) (tasklist.UpdateResult, error) {
	return s.tasks.UpdateStatus(listID, taskID, status)
}

// CloseTaskList ends a task session with a summary.
func (s *Service) CloseTaskList(listID string) (tasklist.CloseResult, error) {
	return s.tasks.Close(listID)
}
