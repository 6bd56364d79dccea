package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/engine"
	"github.com/ericogr/pokeduel/internal/events"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
	"github.com/ericogr/pokeduel/internal/storage"
)

// DeckSource loads a deck by id on behalf of the holder of credential.
type DeckSource interface {
	GetDeck(ctx context.Context, deckID uint, credential string) (*game.Deck, error)
}

// CreatureSource resolves a creature id to its elemental types.
type CreatureSource interface {
	CreatureTypes(ctx context.Context, creatureID int) ([]game.Type, error)
}

// RetryPolicy bounds upstream calls. Every attempt gets Timeout; failures
// classified unavailable are retried with exponential backoff starting at
// InitialInterval, up to MaxTries attempts in total.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	Timeout         time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxTries == 0 {
		p.MaxTries = 3
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = 200 * time.Millisecond
	}
	if p.Timeout <= 0 {
		p.Timeout = 5 * time.Second
	}
	return p
}

type Deps struct {
	Store     storage.Repository
	Decks     DeckSource
	Creatures CreatureSource
	Engine    *engine.Engine
	Bus       *events.Bus
	Retry     RetryPolicy
}

// Service implements the match, round and deck operations on top of the
// store and the upstream sources.
type Service struct {
	store     storage.Repository
	decks     DeckSource
	creatures CreatureSource
	engine    *engine.Engine
	bus       *events.Bus
	retry     RetryPolicy
}

// New wires a service. Decks default to the local store and Engine to the
// built-in type chart.
func New(d Deps) *Service {
	s := &Service{
		store:     d.Store,
		decks:     d.Decks,
		creatures: d.Creatures,
		engine:    d.Engine,
		bus:       d.Bus,
		retry:     d.Retry.withDefaults(),
	}
	if s.decks == nil {
		s.decks = LocalDecks{Store: d.Store}
	}
	if s.engine == nil {
		s.engine = engine.New(nil)
	}
	return s
}

// TypeTable exposes the chart rounds are resolved with.
func (s *Service) TypeTable() *game.TypeTable { return s.engine.Table() }

// LocalDecks serves decks from the local database. The credential is not
// needed since the store is trusted.
type LocalDecks struct {
	Store interface {
		GetDeckByID(ctx context.Context, id uint) (*game.Deck, error)
	}
}

func (l LocalDecks) GetDeck(ctx context.Context, deckID uint, _ string) (*game.Deck, error) {
	return l.Store.GetDeckByID(ctx, deckID)
}

// retry runs fn with the policy's per-attempt timeout, retrying only
// unavailable failures.
func retry[T any](ctx context.Context, p RetryPolicy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = 8 * p.InitialInterval

	attempt := 0
	v, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		actx, cancel := context.WithTimeout(ctx, p.Timeout)
		defer cancel()
		v, err := fn(actx)
		if err == nil {
			return v, nil
		}
		if !game.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		logging.Warn("upstream call failed", err, logging.Fields{
			constants.LogFieldSource:  op,
			constants.LogFieldAttempt: attempt,
		})
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(p.MaxTries))
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) && game.KindOf(err) == game.KindInternal {
		err = game.Unavailable(op+" interrupted", err)
	}
	return v, err
}
