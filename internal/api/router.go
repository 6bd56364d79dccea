package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ericogr/pokeduel/internal/constants"
)

// NewRouter mounts every route under /api.
func NewRouter(h *Handler, verifier *SessionVerifier) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger())

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.GET(constants.RouteHealth, Health)
		apiRoutes.GET(constants.RouteVersion, Version)
		apiRoutes.GET(constants.RouteTypes, h.ListTypes)
		apiRoutes.GET(constants.RouteBattle, h.Battle)
		apiRoutes.GET(constants.RouteCreatureByID, h.GetCreature)
		apiRoutes.GET(constants.RouteLeaderboard, h.ListLeaderboard)

		// Authenticated endpoints
		protected := apiRoutes.Group("")
		protected.Use(AuthRequired(verifier, h.svc))

		protected.GET(constants.RouteMe, h.GetMe)

		protected.POST(constants.RouteDeck, h.CreateDeck)
		protected.GET(constants.RouteDecks, h.ListDecks)
		protected.GET(constants.RouteDeckByID, h.GetDeck)
		protected.PUT(constants.RouteDeckByID, h.UpdateDeck)

		protected.POST(constants.RouteMatch, h.CreateMatch)
		protected.GET(constants.RouteMatches, h.ListMatches)
		protected.GET(constants.RouteMatchByID, h.GetMatch)
		protected.PUT(constants.RouteMatchJoin, h.JoinMatch)
		protected.PUT(constants.RouteMatchDeck, h.SelectDeck)
		protected.POST(constants.RouteMatchRound, h.SubmitRound)
		protected.GET(constants.RouteMatchRounds, h.ListRounds)
		protected.GET(constants.RouteMatchEvents, h.StreamEvents)
		protected.GET(constants.RouteRoundByID, h.GetRound)
		protected.GET(constants.RouteInvitations, h.ListInvitations)
	}
	return router
}
