package config

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type amqpConn interface {
	IsClosed() bool
}

type mqttConn interface {
	IsConnected() bool
}

// HealthChecker reports the state of every backing service on /healthz.
type HealthChecker struct {
	db    pinger
	amqp  amqpConn
	mqtt  mqttConn
	redis pinger
}

var _ pinger = (*sql.DB)(nil)

func NewHealthChecker(db pinger, amqp amqpConn, mqttClient mqttConn, redis pinger) *HealthChecker {
	return &HealthChecker{db: db, amqp: amqp, mqtt: mqttClient, redis: redis}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK
	deps := gin.H{}

	mark := func(name string, err error) {
		if err != nil {
			deps[name] = gin.H{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
			return
		}
		deps[name] = gin.H{"status": "up"}
	}

	mark("postgres", h.db.PingContext(ctx))

	if h.amqp.IsClosed() {
		mark("rabbitmq", errDown("connection closed"))
	} else {
		mark("rabbitmq", nil)
	}

	if !h.mqtt.IsConnected() {
		mark("mqtt", errDown("not connected"))
	} else {
		mark("mqtt", nil)
	}

	mark("redis", h.redis.PingContext(ctx))

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}

type errDown string

func (e errDown) Error() string { return string(e) }
