package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/service"
)

type SubmitRoundPayload struct {
	Turn int `json:"turn"`
}

// SubmitRound plays the next turn. The body is optional; with {"turn": n}
// a retried submission returns the round already played for n. By default
// the round is returned, ?view=match returns the updated match instead.
func (h *Handler) SubmitRound(c *gin.Context) {
	matchID, ok := uintParam(c, constants.ParamMatchID, constants.ErrInvalidMatchID)
	if !ok {
		return
	}
	var req SubmitRoundPayload
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if req.Turn < 0 {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	userID, credential := currentUser(c)
	res, err := h.svc.SubmitRound(c.Request.Context(), service.SubmitRoundRequest{
		MatchID:    matchID,
		UserID:     userID,
		Credential: credential,
		Turn:       req.Turn,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	if c.Query(constants.QueryView) == constants.ViewMatch {
		c.JSON(status, res.Match)
		return
	}
	c.JSON(status, res)
}

// ListRounds returns the rounds of a match to its players.
func (h *Handler) ListRounds(c *gin.Context) {
	matchID, ok := uintParam(c, constants.ParamMatchID, constants.ErrInvalidMatchID)
	if !ok {
		return
	}
	userID, _ := currentUser(c)
	rounds, err := h.svc.ListRounds(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rounds)
}

func (h *Handler) GetRound(c *gin.Context) {
	roundID, ok := uintParam(c, constants.ParamRoundID, constants.ErrInvalidRoundID)
	if !ok {
		return
	}
	userID, _ := currentUser(c)
	r, err := h.svc.GetRound(c.Request.Context(), roundID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
