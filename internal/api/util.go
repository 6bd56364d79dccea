package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
)

// currentUser returns the identity set by AuthRequired.
func currentUser(c *gin.Context) (userID uint, credential string) {
	return c.GetUint(constants.CtxUserID), c.GetString(constants.CtxCredential)
}

// uintParam parses a positive id route parameter. On failure it writes a
// 400 with msg and returns false.
func uintParam(c *gin.Context, name, msg string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: msg})
		return 0, false
	}
	return uint(n), true
}

func statusFor(kind game.Kind) int {
	switch kind {
	case game.KindValidation:
		return http.StatusBadRequest
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindConflict:
		return http.StatusConflict
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status of its kind. Internal errors are
// logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	kind := game.KindOf(err)
	status := statusFor(kind)
	fields := logging.Fields{
		constants.LogFieldMethod:    c.Request.Method,
		constants.LogFieldPath:      c.FullPath(),
		constants.LogFieldRequestID: c.GetString(constants.CtxRequestID),
	}
	switch kind {
	case game.KindInternal:
		logging.Error("request failed", err, fields)
		c.JSON(status, gin.H{constants.JSONKeyError: constants.ErrInternal})
		return
	case game.KindUnavailable:
		logging.Warn("upstream unavailable", err, fields)
	}
	c.JSON(status, gin.H{constants.JSONKeyError: game.PublicMessage(err)})
}
