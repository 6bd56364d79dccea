package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/pokeduel/internal/constants"
)

type DeckPayload struct {
	Creatures []int `json:"creatures"`
}

func (h *Handler) CreateDeck(c *gin.Context) {
	var req DeckPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	userID, _ := currentUser(c)
	d, err := h.svc.CreateDeck(c.Request.Context(), userID, req.Creatures)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// UpdateDeck replaces the cards of one of the caller's decks.
func (h *Handler) UpdateDeck(c *gin.Context) {
	deckID, ok := uintParam(c, constants.ParamDeckID, constants.ErrInvalidDeckID)
	if !ok {
		return
	}
	var req DeckPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	userID, _ := currentUser(c)
	d, err := h.svc.UpdateDeck(c.Request.Context(), userID, deckID, req.Creatures)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDeck(c *gin.Context) {
	deckID, ok := uintParam(c, constants.ParamDeckID, constants.ErrInvalidDeckID)
	if !ok {
		return
	}
	d, err := h.svc.GetDeck(c.Request.Context(), deckID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// ListDecks returns the caller's decks.
func (h *Handler) ListDecks(c *gin.Context) {
	userID, _ := currentUser(c)
	decks, err := h.svc.ListDecks(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, decks)
}
