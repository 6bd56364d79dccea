package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/engine"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
	"github.com/ericogr/pokeduel/internal/storage"
)

type SubmitRoundRequest struct {
	MatchID    uint
	UserID     uint
	Credential string
	// Turn, when positive, is the turn the caller expects to play. A
	// repeated submission of an already played turn returns that round.
	Turn int
}

// RoundResult holds the round and the match as seen by the transaction
// that wrote it. Battle is only set when the round was resolved by this
// call; a replay carries the stored round alone.
type RoundResult struct {
	Round    *game.Round    `json:"round"`
	Match    *game.Match    `json:"match"`
	Battle   *engine.Result `json:"battle,omitempty"`
	Replayed bool           `json:"replayed"`
}

// matchup is everything fetched from upstream for one turn.
type matchup struct {
	owner, opponent engine.Creature
	minSize         int
}

// SubmitRound plays the next turn of a match.
func (s *Service) SubmitRound(ctx context.Context, req SubmitRoundRequest) (*RoundResult, error) {
	m, err := s.store.GetMatchByID(ctx, req.MatchID)
	if err != nil {
		return nil, err
	}

	if req.Turn > 0 {
		r, err := s.store.FindRoundByTurn(ctx, req.MatchID, req.Turn)
		switch {
		case err == nil:
			if !m.IsParticipant(req.UserID) {
				return nil, game.ErrNotAPlayer
			}
			return &RoundResult{Round: r, Match: m, Replayed: true}, nil
		case !errors.Is(err, game.ErrRoundNotFound):
			return nil, err
		}
	}

	if err := game.AdmitRound(m, req.UserID); err != nil {
		return nil, err
	}
	turn := len(m.Rounds) + 1
	if req.Turn > 0 && req.Turn != turn {
		return nil, game.ErrTurnConflict
	}

	mu, err := s.loadMatchup(ctx, m, turn, req.Credential)
	if err != nil {
		return nil, err
	}
	battle := s.engine.Resolve(mu.owner, mu.opponent)

	ownerID, opponentID := m.PlayerIDs()
	round := &game.Round{
		MatchID:            m.ID,
		Turn:               turn,
		OwnerCreatureID:    mu.owner.ID,
		OpponentCreatureID: mu.opponent.ID,
	}
	switch battle.Outcome {
	case engine.FirstWins:
		round.WinnerID = &ownerID
	case engine.SecondWins:
		round.WinnerID = &opponentID
	}

	var out *game.Match
	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		locked, err := tx.LockMatch(m.ID)
		if err != nil {
			return err
		}
		if err := game.AdmitRound(locked, req.UserID); err != nil {
			return err
		}
		if !sameSlot(locked.OwnerDeckID, m.OwnerDeckID) || !sameSlot(locked.OpponentDeckID, m.OpponentDeckID) {
			return game.ErrTurnConflict
		}
		n, err := tx.CountRounds(m.ID)
		if err != nil {
			return err
		}
		if n != turn-1 {
			return game.ErrTurnConflict
		}
		if err := tx.CreateRound(round); err != nil {
			return err
		}
		before := locked.Status
		if game.AdvanceAfterRound(locked, n+1, mu.minSize) != before {
			if err := tx.SaveMatch(locked); err != nil {
				return err
			}
		}
		if locked.Rounds, err = tx.ListRounds(m.ID); err != nil {
			return err
		}
		out = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, game.ErrTurnConflict) {
			logging.Warn("round rejected", err, logging.Fields{
				constants.LogFieldMatchID: m.ID,
				constants.LogFieldTurn:    turn,
			})
		}
		return nil, err
	}

	logging.Info("round resolved", logging.Fields{
		constants.LogFieldMatchID: out.ID,
		constants.LogFieldRoundID: round.ID,
		constants.LogFieldTurn:    turn,
		constants.LogFieldStatus:  out.Status,
	})
	s.bus.PublishMatch(ctx, constants.EventRoundResolved, out, round)
	if out.Status == game.MatchFinished {
		s.bus.PublishMatch(ctx, constants.EventMatchFinished, out, round)
	}
	return &RoundResult{Round: round, Match: out, Battle: &battle}, nil
}

// loadMatchup fetches both decks, picks the cards for turn and resolves
// their types. Nothing is locked while this runs.
func (s *Service) loadMatchup(ctx context.Context, m *game.Match, turn int, credential string) (*matchup, error) {
	var ownerDeck, opponentDeck *game.Deck
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ownerDeck, err = s.fetchDeck(gctx, *m.OwnerDeckID, credential)
		return err
	})
	g.Go(func() (err error) {
		opponentDeck, err = s.fetchDeck(gctx, *m.OpponentDeckID, credential)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := game.ReadyForMatch(ownerDeck, opponentDeck, turn); err != nil {
		return nil, err
	}
	ownerCard, err := ownerDeck.CardAt(turn)
	if err != nil {
		return nil, err
	}
	opponentCard, err := opponentDeck.CardAt(turn)
	if err != nil {
		return nil, err
	}

	mu := &matchup{
		owner:    engine.Creature{ID: ownerCard},
		opponent: engine.Creature{ID: opponentCard},
		minSize:  game.MinSize(ownerDeck, opponentDeck),
	}
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		mu.owner.Types, err = s.creatureTypes(gctx, ownerCard)
		return err
	})
	g.Go(func() (err error) {
		mu.opponent.Types, err = s.creatureTypes(gctx, opponentCard)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mu, nil
}

func (s *Service) creatureTypes(ctx context.Context, id int) ([]game.Type, error) {
	return retry(ctx, s.retry, "creature", func(ctx context.Context) ([]game.Type, error) {
		return s.creatures.CreatureTypes(ctx, id)
	})
}

func sameSlot(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
