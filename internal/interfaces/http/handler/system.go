package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orgdir/backend/internal/interfaces/http/dto"
)

// DBPinger reports database reachability
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the health check and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        DBPinger
	startTime time.Time
	now       func() time.Time
}

// NewSystemHandler creates a new SystemHandler. db may be nil, in which case
// the database is reported as "unknown".
func NewSystemHandler(name, version string, db DBPinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		db:        db,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// HealthResponse is the liveness payload
// @name HandlerHealthResponse
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Time     string `json:"time" example:"2026-01-23T12:00:00Z"`
	Database string `json:"database" example:"ok"`
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string `json:"name" example:"directory"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// Health godoc
// @ID           health
// @Summary      Health check
// @Description  Reports service liveness and database reachability. Does not require the API key.
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		Time:     h.now().UTC().Format(time.RFC3339),
		Database: "unknown",
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unavailable"
			c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(resp))
			return
		}
		resp.Database = "ok"
	}

	h.Success(c, resp)
}

// GetSystemInfo godoc
// @ID           getSystemInfo
// @Summary      Get system information
// @Description  Returns the service name, version and uptime
// @Tags         system
// @Produce      json
// @Param        X-API-KEY header string true "API key"
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Failure      401 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
