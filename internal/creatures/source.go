package creatures

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/dedupe"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/keys"
	"github.com/ericogr/pokeduel/internal/logging"
	"github.com/ericogr/pokeduel/internal/pokeapi"
)

// Fetcher is the slice of the PokeAPI client the source needs.
type Fetcher interface {
	PokemonTypes(ctx context.Context, id int) ([]string, error)
}

// Cache stores type name lists by key. A miss returns (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, names []string, ttl time.Duration) error
}

// Source resolves creature ids to their elemental types. Lookups hit the
// cache first, then PokeAPI; concurrent lookups of one creature share a
// single upstream request.
type Source struct {
	fetcher Fetcher
	cache   Cache
	ttl     time.Duration
	timeout time.Duration
}

// New builds a source. cache may be nil. timeout bounds the shared upstream
// request, which outlives any single caller's context.
func New(fetcher Fetcher, cache Cache, ttl, timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Source{fetcher: fetcher, cache: cache, ttl: ttl, timeout: timeout}
}

// CreatureTypes returns the types of creature id in slot order. Missing or
// unrecognized type names become game.TypeUnknown; a creature PokeAPI does
// not know is game.ErrCreatureNotFound and any other failure is classified
// unavailable.
func (s *Source) CreatureTypes(ctx context.Context, id int) ([]game.Type, error) {
	names, err := s.typeNames(ctx, id)
	if err != nil {
		return nil, err
	}
	return game.ParseTypes(names), nil
}

func (s *Source) typeNames(ctx context.Context, id int) ([]string, error) {
	if id <= 0 {
		return nil, game.ErrInvalidCreature
	}
	key := keys.CreatureKey(id)
	if names, ok := s.cached(ctx, key); ok {
		return names, nil
	}

	ch := dedupe.CreatureGroup.DoChan(key, func() (interface{}, error) {
		// detached from the first caller so its cancellation does not fail
		// the others waiting on the same key
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if names, ok := s.cached(fctx, key); ok {
			return names, nil
		}
		names, err := s.fetcher.PokemonTypes(fctx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(fctx, key, names, s.ttl); err != nil {
				logging.Warn("creature cache write failed", err, logging.Fields{constants.LogFieldKey: key})
			}
		}
		logging.Debug("creature types fetched", logging.Fields{constants.LogFieldCreatureID: id, constants.LogFieldSource: "pokeapi"})
		return names, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, classify(id, r.Err)
		}
		names, ok := r.Val.([]string)
		if !ok {
			return nil, fmt.Errorf("unexpected result type from singleflight")
		}
		return names, nil
	case <-ctx.Done():
		return nil, game.Unavailable("creature lookup timed out", ctx.Err())
	}
}

func (s *Source) cached(ctx context.Context, key string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	names, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logging.Warn("creature cache read failed", err, logging.Fields{constants.LogFieldKey: key})
		return nil, false
	}
	return names, ok
}

func classify(id int, err error) error {
	if errors.Is(err, pokeapi.ErrNotFound) {
		return fmt.Errorf("creature %d: %w", id, game.ErrCreatureNotFound)
	}
	return game.Unavailable("creature data unavailable", err)
}
