package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/events"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
)

// StreamEvents upgrades to a WebSocket that receives the events of one
// match. Only its players may watch.
func (h *Handler) StreamEvents(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	matchID, ok := uintParam(c, constants.ParamMatchID, constants.ErrInvalidMatchID)
	if !ok {
		return
	}
	userID, _ := currentUser(c)
	m, err := h.svc.GetMatch(c.Request.Context(), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !m.IsParticipant(userID) {
		respondError(c, game.ErrNotAPlayer)
		return
	}
	conn, err := h.hub.Upgrade(c.Writer, c.Request)
	if err != nil {
		// the upgrader already replied
		logging.Warn("websocket upgrade failed", err, logging.Fields{constants.LogFieldMatchID: matchID})
		return
	}
	h.hub.Serve(events.NewClient(matchID, userID, conn))
}
