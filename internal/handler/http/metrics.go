package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/offline"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/sse"
)

type MetricsHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
}

type metricsHandlerImpl struct {
	collector *metrics.Collector
	hub       *sse.Hub
	queue     *offline.Queue
}

func NewMetricsHandler(collector *metrics.Collector, hub *sse.Hub, queue *offline.Queue) MetricsHandler {
	return &metricsHandlerImpl{collector: collector, hub: hub, queue: queue}
}

// Get implements MetricsHandler.
func (h *metricsHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	out := h.collector.Snapshot()
	out["sseSubscribers"] = h.hub.TotalSubscribers()
	out["sseDropped"] = h.hub.Dropped()

	if h.queue != nil {
		stats, err := h.queue.Stats(r.Context())
		if err != nil {
			slog.Error("failed to read offline queue stats", "error", err)
		} else {
			out["offlinePending"] = stats.Pending
			out["offlineFailed"] = stats.Failed
		}
	}
	response.Success(w, out)
}
