package service

import (
	"context"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
	"github.com/ericogr/pokeduel/internal/storage"
)

func (s *Service) CreateDeck(ctx context.Context, authorID uint, creatureIDs []int) (*game.Deck, error) {
	if err := game.ValidateDeck(creatureIDs); err != nil {
		return nil, err
	}
	d := game.NewDeck(authorID, creatureIDs)
	if err := s.store.CreateDeck(ctx, d); err != nil {
		return nil, err
	}
	logging.Info("deck created", logging.Fields{
		constants.LogFieldDeckID: d.ID,
		constants.LogFieldUserID: authorID,
		constants.LogFieldCount:  d.Size(),
	})
	return d, nil
}

// UpdateDeck replaces the cards of a deck. Only its author may do so. Matches
// already using the deck see the new cards from their next turn on.
func (s *Service) UpdateDeck(ctx context.Context, userID, deckID uint, creatureIDs []int) (*game.Deck, error) {
	if err := game.ValidateDeck(creatureIDs); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		d, err := tx.GetDeckByID(deckID)
		if err != nil {
			return err
		}
		if d.AuthorID != userID {
			return game.ErrDeckNotOwned
		}
		return tx.ReplaceDeckCards(deckID, creatureIDs)
	})
	if err != nil {
		return nil, err
	}
	logging.Info("deck updated", logging.Fields{
		constants.LogFieldDeckID: deckID,
		constants.LogFieldUserID: userID,
		constants.LogFieldCount:  len(creatureIDs),
	})
	return s.store.GetDeckByID(ctx, deckID)
}

// GetDeck returns any stored deck.
func (s *Service) GetDeck(ctx context.Context, deckID uint) (*game.Deck, error) {
	return s.store.GetDeckByID(ctx, deckID)
}

func (s *Service) ListDecks(ctx context.Context, authorID uint) ([]game.Deck, error) {
	return s.store.ListDecksByAuthor(ctx, authorID)
}
