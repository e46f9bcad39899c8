package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
)

const (
	OwnerHeader = "X-Owner-ID"
	OwnerQuery  = "owner_id"
	ownerKey    = "owner_id"
)

// RequireOwner reads the owner id set by the upstream auth layer. Requests
// without one are rejected.
func RequireOwner() gin.HandlerFunc {
	return requireOwner(false)
}

// RequireStreamOwner also accepts ?owner_id= since browser WebSocket clients
// cannot set headers. The header wins when both are present.
func RequireStreamOwner() gin.HandlerFunc {
	return requireOwner(true)
}

func requireOwner(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(OwnerHeader)
		if raw == "" && allowQuery {
			raw = c.Query(OwnerQuery)
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + OwnerHeader})
			return
		}
		c.Set(ownerKey, id)
		c.Next()
	}
}

func ownerFrom(c *gin.Context) int64 {
	return c.GetInt64(ownerKey)
}

func writeError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrOwnershipViolation):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, domain.ErrUnavailable):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
