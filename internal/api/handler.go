package api

import (
	"github.com/ericogr/pokeduel/internal/events"
	"github.com/ericogr/pokeduel/internal/service"
)

// Handler groups the HTTP handlers of the match, deck and user routes.
type Handler struct {
	svc *service.Service
	hub *events.Hub
}

// NewHandler creates a Handler. hub may be nil, which disables the event
// stream route.
func NewHandler(svc *service.Service, hub *events.Hub) *Handler {
	return &Handler{svc: svc, hub: hub}
}
