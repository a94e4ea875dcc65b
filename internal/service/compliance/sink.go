package compliance

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/sse"
)

// FindingsEvent is the SSE event name carrying compliance findings.
const FindingsEvent = "compliance.findings"

// HubSink pushes findings to the company's SSE subscribers.
type HubSink struct {
	hub *sse.Hub
}

func NewHubSink(hub *sse.Hub) *HubSink {
	return &HubSink{hub: hub}
}

// Notify implements compliance.NotificationSink.
func (s *HubSink) Notify(_ context.Context, n compliance.Notification) error {
	if len(n.Findings) == 0 {
		return nil
	}
	delivered := s.hub.Publish(n.CompanyID, sse.Event{
		Event: FindingsEvent,
		Data: map[string]any{
			"company_id": n.CompanyID,
			"summary":    n.Summary,
			"findings":   compliance.ToFindingResponses(n.Findings),
		},
	})
	slog.Debug("findings pushed to subscribers", "company_id", n.CompanyID, "subscribers", delivered)
	return nil
}

// LogSink writes one structured log line per non-waived finding.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Notify implements compliance.NotificationSink.
func (s *LogSink) Notify(ctx context.Context, n compliance.Notification) error {
	for _, f := range n.Findings {
		if f.Waived {
			continue
		}
		level := slog.LevelInfo
		if f.Severity == compliance.SeverityCritical {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "compliance finding",
			"company_id", n.CompanyID,
			"employee_id", f.EmployeeID,
			"finding_id", f.ID,
			"type", f.Type,
			"severity", f.Severity,
			"window_start", f.WindowStart,
			"window_end", f.WindowEnd,
			"overage", f.Overage,
			"unit", f.Unit,
		)
	}
	return nil
}
