package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ericogr/pokeduel/internal/engine"
	"github.com/ericogr/pokeduel/internal/game"
)

// BattlePreview is the resolution of two creatures outside any match.
type BattlePreview struct {
	First  engine.Creature `json:"first"`
	Second engine.Creature `json:"second"`
	Result engine.Result   `json:"result"`
}

// Creature returns the elemental types of one creature.
func (s *Service) Creature(ctx context.Context, id int) (*engine.Creature, error) {
	if id <= 0 {
		return nil, game.ErrInvalidCreature
	}
	types, err := s.creatureTypes(ctx, id)
	if err != nil {
		return nil, err
	}
	return &engine.Creature{ID: id, Types: types}, nil
}

// Battle resolves two creatures without storing anything.
func (s *Service) Battle(ctx context.Context, first, second int) (*BattlePreview, error) {
	if first <= 0 || second <= 0 {
		return nil, game.ErrInvalidCreature
	}
	out := &BattlePreview{First: engine.Creature{ID: first}, Second: engine.Creature{ID: second}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.First.Types, err = s.creatureTypes(gctx, first)
		return err
	})
	g.Go(func() (err error) {
		out.Second.Types, err = s.creatureTypes(gctx, second)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Result = s.engine.Resolve(out.First, out.Second)
	return out, nil
}
