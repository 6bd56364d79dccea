package service

import (
	"context"

	"github.com/ericogr/pokeduel/internal/game"
)

// EnsureUser records the identity carried by a session token.
func (s *Service) EnsureUser(ctx context.Context, id uint, username string) error {
	return s.store.UpsertUser(ctx, id, username)
}

func (s *Service) Me(ctx context.Context, id uint) (*game.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]game.User, error) {
	return s.store.GetTopPlayers(ctx, limit)
}
