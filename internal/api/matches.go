package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/service"
)

type CreateMatchPayload struct {
	OpponentID *uint `json:"opponent_id"`
	InviteID   *uint `json:"invite_id"`
	DeckID     *uint `json:"deck_id"`
}

// CreateMatch creates a pending match owned by the caller.
func (h *Handler) CreateMatch(c *gin.Context) {
	// an empty body creates an open match
	var req CreateMatchPayload
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	userID, credential := currentUser(c)
	m, err := h.svc.CreateMatch(c.Request.Context(), service.CreateMatchRequest{
		OwnerID:       userID,
		OpponentID:    req.OpponentID,
		InvitedUserID: req.InviteID,
		OwnerDeckID:   req.DeckID,
		Credential:    credential,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// JoinMatch seats the caller as the opponent.
func (h *Handler) JoinMatch(c *gin.Context) {
	matchID, ok := uintParam(c, constants.ParamMatchID, constants.ErrInvalidMatchID)
	if !ok {
		return
	}
	userID, _ := currentUser(c)
	m, err := h.svc.JoinMatch(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type SelectDeckPayload struct {
	DeckID uint `json:"deck_id" binding:"required"`
}

// SelectDeck assigns one of the caller's decks to their side of a match.
func (h *Handler) SelectDeck(c *gin.Context) {
	matchID, ok := uintParam(c, constants.ParamMatchID, constants.ErrInvalidMatchID)
	if !ok {
		return
	}
	var req SelectDeckPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidDeckID})
		return
	}
	userID, credential := currentUser(c)
	m, err := h.svc.SelectDeck(c.Request.Context(), service.SelectDeckRequest{
		MatchID:    matchID,
		UserID:     userID,
		DeckID:     req.DeckID,
		Credential: credential,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetMatch returns a match with its rounds.
func (h *Handler) GetMatch(c *gin.Context) {
	matchID, ok := uintParam(c, constants.ParamMatchID, constants.ErrInvalidMatchID)
	if !ok {
		return
	}
	m, err := h.svc.GetMatch(c.Request.Context(), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ListMatches returns the caller's matches, optionally filtered by ?status=.
func (h *Handler) ListMatches(c *gin.Context) {
	status := game.MatchStatus(c.Query(constants.QueryStatus))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidStatus})
		return
	}
	userID, _ := currentUser(c)
	matches, err := h.svc.ListMatches(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

// ListInvitations returns pending matches the caller is invited to.
func (h *Handler) ListInvitations(c *gin.Context) {
	userID, _ := currentUser(c)
	matches, err := h.svc.ListInvitations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}
