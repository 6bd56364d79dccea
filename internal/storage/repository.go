package storage

import (
	"context"

	"github.com/ericogr/pokeduel/internal/game"
)

type Repository interface {
	CreateMatch(ctx context.Context, m *game.Match) error
	// GetMatchByID loads a match with its invitation and rounds (by turn).
	GetMatchByID(ctx context.Context, id uint) (*game.Match, error)
	// ListMatchesForUser returns matches the user owns or plays, newest
	// first. An empty status means any status.
	ListMatchesForUser(ctx context.Context, userID uint, status game.MatchStatus) ([]game.Match, error)
	// ListInvitedMatches returns pending matches with an unresolved
	// invitation naming userID.
	ListInvitedMatches(ctx context.Context, userID uint) ([]game.Match, error)
	ListRounds(ctx context.Context, matchID uint) ([]game.Round, error)
	CountRounds(ctx context.Context, matchID uint) (int, error)
	FindRoundByTurn(ctx context.Context, matchID uint, turn int) (*game.Round, error)
	GetRoundByID(ctx context.Context, id uint) (*game.Round, error)

	CreateDeck(ctx context.Context, d *game.Deck) error
	GetDeckByID(ctx context.Context, id uint) (*game.Deck, error)
	ListDecksByAuthor(ctx context.Context, authorID uint) ([]game.Deck, error)

	UpsertUser(ctx context.Context, id uint, username string) error
	GetUserByID(ctx context.Context, id uint) (*game.User, error)
	// Leaderboard
	GetTopPlayers(ctx context.Context, limit int) ([]game.User, error)
	// FindUncountedFinishedMatches returns finished matches whose results
	// were not yet added to the players' stats.
	FindUncountedFinishedMatches(ctx context.Context, limit int) ([]game.Match, error)

	// InTx runs fn in one database transaction; fn's error rolls it back.
	InTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of operations available inside InTx. Every call uses the
// transaction's connection.
type Tx interface {
	// LockMatch loads the match with its invitation and holds a row lock
	// on it until the transaction ends.
	LockMatch(id uint) (*game.Match, error)
	CountRounds(matchID uint) (int, error)
	FindRoundByTurn(matchID uint, turn int) (*game.Round, error)
	ListRounds(matchID uint) ([]game.Round, error)
	// CreateRound inserts r; a second round for the same turn is
	// game.ErrTurnConflict.
	CreateRound(r *game.Round) error
	// SaveMatch writes the match columns only, never its associations.
	SaveMatch(m *game.Match) error
	SaveInvitation(inv *game.Invitation) error

	GetDeckByID(id uint) (*game.Deck, error)
	ReplaceDeckCards(deckID uint, creatureIDs []int) error

	AddUserResult(userID uint, victories, defeats, draws int) error
}
