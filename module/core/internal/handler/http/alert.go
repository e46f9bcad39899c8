package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
)

const (
	streamPingInterval = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

type alertService interface {
	List(ctx context.Context, ownerID int64) ([]domain.Alert, error)
	Resolve(ctx context.Context, ownerID int64, id uuid.UUID) error
	ClearAll(ctx context.Context, ownerID int64) (int64, error)
	Delete(ctx context.Context, ownerID int64, id uuid.UUID) error
}

type alertFeed interface {
	Subscribe(ctx context.Context, ownerID int64) (<-chan domain.AlertEvent, error)
}

type AlertHandler struct {
	alertSvc alertService
	feed     alertFeed
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewAlertHandler(alertSvc alertService, feed alertFeed, log zerolog.Logger) *AlertHandler {
	return &AlertHandler{
		alertSvc: alertSvc,
		feed:     feed,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		log:      log,
	}
}

func (h *AlertHandler) Register(r *gin.RouterGroup) {
	r.GET("/alerts/stream", RequireStreamOwner(), h.Stream)

	g := r.Group("/alerts", RequireOwner())
	g.GET("", h.List)
	g.POST("/clear-all", h.ClearAll)
	g.POST("/:id/resolve", h.Resolve)
	g.POST("/:id/ack", h.Ack)
	g.DELETE("/:id", h.Delete)
}

func (h *AlertHandler) List(c *gin.Context) {
	alerts, err := h.alertSvc.List(c.Request.Context(), ownerFrom(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *AlertHandler) Resolve(c *gin.Context) {
	id, ok := h.resolveByParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved", "alert_id": id})
}

func (h *AlertHandler) Ack(c *gin.Context) {
	id, ok := h.resolveByParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged", "alert_id": id})
}

func (h *AlertHandler) resolveByParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return uuid.Nil, false
	}
	if err := h.alertSvc.Resolve(c.Request.Context(), ownerFrom(c), id); err != nil {
		writeError(c, h.log, err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *AlertHandler) ClearAll(c *gin.Context) {
	n, err := h.alertSvc.ClearAll(c.Request.Context(), ownerFrom(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "resolved": n})
}

func (h *AlertHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}
	if err := h.alertSvc.Delete(c.Request.Context(), ownerFrom(c), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stream pushes the owner's alert events over a websocket until either side
// goes away.
func (h *AlertHandler) Stream(c *gin.Context) {
	ownerID := ownerFrom(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote_addr", c.Request.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, err := h.feed.Subscribe(ctx, ownerID)
	if err != nil {
		h.log.Error().Err(err).Int64("owner_id", ownerID).Msg("subscribe alert feed")
		_ = conn.WriteJSON(gin.H{"error": "alert feed unavailable"})
		return
	}

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.log.Debug().Int64("owner_id", ownerID).Msg("alert stream opened")

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Debug().Err(err).Int64("owner_id", ownerID).Msg("alert stream closed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}
		}
	}
}
