package service

import (
	"context"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
	"github.com/ericogr/pokeduel/internal/storage"
)

type CreateMatchRequest struct {
	OwnerID       uint
	OpponentID    *uint
	InvitedUserID *uint
	// OwnerDeckID optionally selects the owner's deck at creation.
	OwnerDeckID *uint
	Credential  string
}

// CreateMatch stores a new pending match together with its invitation.
func (s *Service) CreateMatch(ctx context.Context, req CreateMatchRequest) (*game.Match, error) {
	m, err := game.NewMatch(req.OwnerID, req.OpponentID, req.InvitedUserID)
	if err != nil {
		return nil, err
	}
	if req.OwnerDeckID != nil {
		deck, err := s.fetchDeck(ctx, *req.OwnerDeckID, req.Credential)
		if err != nil {
			return nil, err
		}
		if err := game.SelectDeck(m, req.OwnerID, deck); err != nil {
			return nil, err
		}
	}
	if err := s.store.CreateMatch(ctx, m); err != nil {
		return nil, err
	}
	logging.Info("match created", logging.Fields{constants.LogFieldMatchID: m.ID, constants.LogFieldUserID: req.OwnerID})
	s.bus.PublishMatch(ctx, constants.EventMatchCreated, m, nil)
	return m, nil
}

// JoinMatch seats userID as the opponent. The opponent and the invitation
// are written in the same transaction.
func (s *Service) JoinMatch(ctx context.Context, matchID, userID uint) (*game.Match, error) {
	var out *game.Match
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		m, err := tx.LockMatch(matchID)
		if err != nil {
			return err
		}
		if err := game.Join(m, userID); err != nil {
			return err
		}
		if err := tx.SaveMatch(m); err != nil {
			return err
		}
		if m.Invitation != nil {
			if err := tx.SaveInvitation(m.Invitation); err != nil {
				return err
			}
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Info("match joined", logging.Fields{constants.LogFieldMatchID: matchID, constants.LogFieldUserID: userID})
	s.bus.PublishMatch(ctx, constants.EventMatchJoined, out, nil)
	return out, nil
}

type SelectDeckRequest struct {
	MatchID    uint
	UserID     uint
	DeckID     uint
	Credential string
}

// SelectDeck assigns a deck to the caller's side. The deck is fetched
// before the transaction so no lock is held during the lookup.
func (s *Service) SelectDeck(ctx context.Context, req SelectDeckRequest) (*game.Match, error) {
	m, err := s.store.GetMatchByID(ctx, req.MatchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParticipant(req.UserID) {
		return nil, game.ErrNotAPlayer
	}
	deck, err := s.fetchDeck(ctx, req.DeckID, req.Credential)
	if err != nil {
		return nil, err
	}

	var out *game.Match
	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		locked, err := tx.LockMatch(req.MatchID)
		if err != nil {
			return err
		}
		if err := game.SelectDeck(locked, req.UserID, deck); err != nil {
			return err
		}
		if err := tx.SaveMatch(locked); err != nil {
			return err
		}
		out = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Info("deck selected", logging.Fields{
		constants.LogFieldMatchID: req.MatchID,
		constants.LogFieldUserID:  req.UserID,
		constants.LogFieldDeckID:  req.DeckID,
	})
	s.bus.PublishMatch(ctx, constants.EventMatchDeckSelected, out, nil)
	return out, nil
}

// GetMatch returns a match with its invitation and rounds.
func (s *Service) GetMatch(ctx context.Context, matchID uint) (*game.Match, error) {
	return s.store.GetMatchByID(ctx, matchID)
}

// ListMatches returns the caller's matches, optionally filtered by status.
func (s *Service) ListMatches(ctx context.Context, userID uint, status game.MatchStatus) ([]game.Match, error) {
	if status != "" && !status.Valid() {
		return nil, game.Validation("unknown match status %q", status)
	}
	return s.store.ListMatchesForUser(ctx, userID, status)
}

// ListRounds returns a match's rounds by turn. Only its players may read
// them.
func (s *Service) ListRounds(ctx context.Context, matchID, userID uint) ([]game.Round, error) {
	m, err := s.store.GetMatchByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParticipant(userID) {
		return nil, game.ErrNotAPlayer
	}
	return s.store.ListRounds(ctx, matchID)
}

// GetRound returns one round if the caller played in its match.
func (s *Service) GetRound(ctx context.Context, roundID, userID uint) (*game.Round, error) {
	r, err := s.store.GetRoundByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	m, err := s.store.GetMatchByID(ctx, r.MatchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParticipant(userID) {
		return nil, game.ErrNotAPlayer
	}
	return r, nil
}

// ListInvitations returns pending matches the caller was invited to.
func (s *Service) ListInvitations(ctx context.Context, userID uint) ([]game.Match, error) {
	return s.store.ListInvitedMatches(ctx, userID)
}

func (s *Service) fetchDeck(ctx context.Context, deckID uint, credential string) (*game.Deck, error) {
	return retry(ctx, s.retry, "deck", func(ctx context.Context) (*game.Deck, error) {
		return s.decks.GetDeck(ctx, deckID, credential)
	})
}
