package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/pokeduel/internal/constants"
)

// ListTypes returns the damage relations of every type.
func (h *Handler) ListTypes(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.TypeTable().Chart())
}

// GetCreature returns the types of :creatureID.
func (h *Handler) GetCreature(c *gin.Context) {
	id, err := strconv.Atoi(c.Param(constants.ParamCreatureID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidCreature})
		return
	}
	creature, err := h.svc.Creature(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, creature)
}

// Battle previews ?first= against ?second= without touching any match.
func (h *Handler) Battle(c *gin.Context) {
	first, err1 := strconv.Atoi(c.Query(constants.QueryFirst))
	second, err2 := strconv.Atoi(c.Query(constants.QuerySecond))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidCreature})
		return
	}
	preview, err := h.svc.Battle(c.Request.Context(), first, second)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// ListLeaderboard returns the top players by victories (desc), limited to top 10 by default.
func (h *Handler) ListLeaderboard(c *gin.Context) {
	// optional ?limit=N
	limit := constants.DefaultLeaderboard
	if s := c.Query(constants.QueryLimit); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	users, err := h.svc.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetMe returns the caller's profile and counters.
func (h *Handler) GetMe(c *gin.Context) {
	userID, _ := currentUser(c)
	u, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
