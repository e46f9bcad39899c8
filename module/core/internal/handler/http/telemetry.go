package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
)

type ingestService interface {
	Ingest(ctx context.Context, fix domain.TelemetryFix) (*domain.IngestResult, error)
}

type ingestResponse struct {
	Status        string              `json:"status"`
	Data          domain.TelemetryFix `json:"data"`
	AlertsCreated []domain.Alert      `json:"alerts_created"`
}

// TelemetryHandler accepts fixes from devices that post over HTTP.
type TelemetryHandler struct {
	ingestSvc ingestService
	log       zerolog.Logger
}

func NewTelemetryHandler(ingestSvc ingestService, log zerolog.Logger) *TelemetryHandler {
	return &TelemetryHandler{ingestSvc: ingestSvc, log: log}
}

func (h *TelemetryHandler) Register(r *gin.RouterGroup) {
	r.POST("/gps-data", h.Ingest)
}

func (h *TelemetryHandler) Ingest(c *gin.Context) {
	var payload domain.TelemetryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	fix, err := payload.Fix()
	if err != nil {
		h.log.Warn().Err(err).Str("device_id", payload.DeviceID).Msg("rejected fix")
		writeError(c, h.log, err)
		return
	}

	result, err := h.ingestSvc.Ingest(c.Request.Context(), fix)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ingestResponse{
		Status:        "success",
		Data:          result.Fix,
		AlertsCreated: result.AlertsCreated,
	})
}
