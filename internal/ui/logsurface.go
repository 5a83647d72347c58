package ui

import "log/slog"

// LogSurface is the headless Surface used when no interactive console host
// is attached: every message becomes a structured log event. It reports
// itself visible so the broker never raises notifications into the void.
type LogSurface struct {
	logger *slog.Logger
}

func NewLogSurface(logger *slog.Logger) *LogSurface {
	return &LogSurface{logger: logger}
}

func (s *LogSurface) Post(m Message) {
	switch msg := m.(type) {
	case ShowQuestion:
		s.logger.Info("surface", "message", Type(m), "request_id", msg.RequestID, "title", msg.Title)
	case ShowList:
		s.logger.Info("surface", "message", Type(m), "pending", len(msg.Requests))
	case ShowHome:
		s.logger.Info("surface", "message", Type(m), "pending_reviews", len(msg.PendingPlanReviews), "history", msg.HistoryCount)
	case SetBadge:
		s.logger.Debug("surface", "message", Type(m), "count", msg.Count)
	default:
		s.logger.Debug("surface", "message", Type(m))
	}
}

func (s *LogSurface) Visible() bool { return true }
func (s *LogSurface) Focus() error  { return nil }
func (s *LogSurface) Notify()       { s.logger.Info("surface notification") }
