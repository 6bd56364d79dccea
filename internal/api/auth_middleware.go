package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/logging"
)

// UserRecorder stores the identity carried by a valid session.
type UserRecorder interface {
	EnsureUser(ctx context.Context, id uint, username string) error
}

// sessionToken reads the token from the session cookie, falling back to a
// Bearer Authorization header.
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(constants.CookieSessionName); err == nil && token != "" {
		return token
	}
	h := c.GetHeader(constants.HeaderAuthorization)
	if strings.HasPrefix(h, constants.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, constants.BearerPrefix))
	}
	return ""
}

// AuthRequired validates the session token and injects identity into context.
func AuthRequired(v *SessionVerifier, users UserRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
			return
		}
		claims, err := v.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidSession})
			return
		}
		if users != nil {
			if err := users.EnsureUser(c.Request.Context(), claims.UserID, claims.Username); err != nil {
				logging.Warn("failed to record user", err, logging.Fields{constants.LogFieldUserID: claims.UserID})
			}
		}
		c.Set(constants.CtxUserID, claims.UserID)
		c.Set(constants.CtxUsername, claims.Username)
		c.Set(constants.CtxCredential, token)
		c.Next()
	}
}
