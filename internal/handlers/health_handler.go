package handlers

import (
	"net/http"

	"github.com/dgeemedia/cse340-backend/internal/health"
	"github.com/dgeemedia/cse340-backend/pkg/utils"
)

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// BasicHealth is the liveness probe.
func (h *HealthHandler) BasicHealth(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessHealth fails only when the database is unreachable. A degraded
// cache or image store still serves traffic.
func (h *HealthHandler) ReadinessHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic(r.Context())
	code := http.StatusOK
	if status.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}

func (h *HealthHandler) DetailedHealth(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.checker.CheckDetailed(r.Context()))
}
