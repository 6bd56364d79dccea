package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/logging"
)

// RequestID tags every request with an id, reusing a valid incoming
// X-Request-ID, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(constants.CtxRequestID, id)
		c.Header(constants.HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := logging.Fields{
			constants.LogFieldRequestID: c.GetString(constants.CtxRequestID),
			constants.LogFieldMethod:    c.Request.Method,
			constants.LogFieldPath:      c.Request.URL.Path,
			constants.LogFieldStatus:    c.Writer.Status(),
			constants.LogFieldLatency:   time.Since(start).Milliseconds(),
		}
		if id := c.GetUint(constants.CtxUserID); id != 0 {
			fields[constants.LogFieldUserID] = id
		}
		logging.Debug("request", fields)
	}
}
