package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/lesson-harvester/internal/delivery/http/response"
	"github.com/user/lesson-harvester/internal/entity"
)

// StatusSource provides the live counters of the current run.
type StatusSource interface {
	Snapshot() entity.HarvestSummary
}

// PingFunc checks that an optional backing store is reachable.
type PingFunc func(ctx context.Context) error

type Handler struct {
	status StatusSource
	runID  string
	pings  map[string]PingFunc
	logger *zap.Logger
	now    func() time.Time
}

func NewHandler(status StatusSource, runID string, pings map[string]PingFunc, logger *zap.Logger) *Handler {
	return &Handler{
		status: status,
		runID:  runID,
		pings:  pings,
		logger: logger,
		now:    time.Now,
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response.HealthResponse{Status: "ok"}
	if len(h.pings) > 0 {
		resp.Dependencies = make(map[string]string, len(h.pings))
	}
	for name, ping := range h.pings {
		if err := ping(ctx); err != nil {
			h.logger.Error("Health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Dependencies[name] = "unhealthy"
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[name] = "healthy"
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, resp)
}

func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	s := h.status.Snapshot()

	resp := response.StatusResponse{
		RunID:                h.runID,
		State:                s.State,
		UnitsFound:           s.UnitsFound,
		LessonsFound:         s.LessonsFound,
		ActivitiesDiscovered: s.ActivitiesDiscovered,
		ActivitiesExtracted:  s.ActivitiesExtracted,
		ActivitiesCached:     s.ActivitiesCached,
		CardsExtracted:       s.CardsExtracted,
		SkippedCount:         len(s.Skipped),
		Skipped:              make([]response.SkippedNodeResponse, 0, len(s.Skipped)),
		FinishedAt:           s.FinishedAt,
	}
	for _, n := range s.Skipped {
		resp.Skipped = append(resp.Skipped, response.SkippedNodeResponse{
			URL:            n.URL,
			Role:           string(n.Role),
			Kind:           string(n.Kind),
			Reason:         n.Reason,
			DiagnosticPath: n.DiagnosticPath,
			LastAttemptAt:  n.LastAttemptTimestamp,
		})
	}
	if !s.StartedAt.IsZero() {
		started := s.StartedAt
		resp.StartedAt = &started
		end := h.now()
		if s.FinishedAt != nil {
			end = *s.FinishedAt
		}
		resp.ElapsedSeconds = end.Sub(started).Seconds()
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}
