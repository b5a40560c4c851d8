package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jwebster45206/heartbeat-engine/pkg/storage"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

// LoopCounter reports how many heartbeat loops are running.
type LoopCounter interface {
	Active() int
}

type HealthHandler struct {
	store  storage.Storage
	loops  LoopCounter
	logger *slog.Logger
}

// NewHealthHandler builds the health endpoint. loops may be nil.
func NewHealthHandler(store storage.Storage, loops LoopCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		loops:  loops,
		logger: logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["storage"] = "healthy"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "heartbeat-engine",
		Components: components,
	}
	if h.loops != nil {
		response.Components["active_loops"] = strconv.Itoa(h.loops.Active())
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, statusCode, response)
}
