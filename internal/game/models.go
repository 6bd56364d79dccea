package game

import (
	"sort"

	"gorm.io/gorm"
)

// MatchStatus is the lifecycle state of a match. It only moves forward:
// pending -> started -> finished.
type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchStarted  MatchStatus = "started"
	MatchFinished MatchStatus = "finished"
)

// rank orders statuses so transitions can be checked for monotonicity.
func (s MatchStatus) rank() int {
	switch s {
	case MatchStarted:
		return 1
	case MatchFinished:
		return 2
	default:
		return 0
	}
}

// Valid reports whether s is one of the known statuses.
func (s MatchStatus) Valid() bool {
	return s == MatchPending || s == MatchStarted || s == MatchFinished
}

type Match struct {
	gorm.Model
	OwnerID        uint        `json:"owner_id" gorm:"index;not null"`
	OpponentID     *uint       `json:"opponent_id" gorm:"index"`
	OwnerDeckID    *uint       `json:"owner_deck_id"`
	OpponentDeckID *uint       `json:"opponent_deck_id"`
	Status         MatchStatus `json:"status" gorm:"size:16;index;not null"`
	Rounds         []Round     `json:"rounds,omitempty"`
	Invitation     *Invitation `json:"invitation,omitempty"`
	// StatsCounted marks finished matches already folded into user stats.
	StatsCounted bool `json:"-" gorm:"index"`
}

// IsParticipant reports whether userID is the owner or the opponent.
func (m *Match) IsParticipant(userID uint) bool {
	if m == nil {
		return false
	}
	if m.OwnerID == userID {
		return true
	}
	return m.OpponentID != nil && *m.OpponentID == userID
}

// HasTwoPlayers reports whether the opponent slot is filled.
func (m *Match) HasTwoPlayers() bool {
	return m.OpponentID != nil
}

// HasDecks reports whether both deck slots are filled.
func (m *Match) HasDecks() bool {
	return m.OwnerDeckID != nil && m.OpponentDeckID != nil
}

// PlayerIDs returns owner and opponent ids; the opponent is 0 when unset.
func (m *Match) PlayerIDs() (owner, opponent uint) {
	owner = m.OwnerID
	if m.OpponentID != nil {
		opponent = *m.OpponentID
	}
	return owner, opponent
}

// Invitation names the single user allowed to join a match. It is resolved
// exactly once, when that user joins.
type Invitation struct {
	gorm.Model
	MatchID  uint `json:"match_id" gorm:"uniqueIndex;not null"`
	UserID   uint `json:"user_id" gorm:"index;not null"`
	Resolved bool `json:"resolved"`
}

// Round is the outcome of one turn. Rounds are created once and never
// modified; (match_id, turn) is unique.
type Round struct {
	gorm.Model
	MatchID            uint  `json:"match_id" gorm:"uniqueIndex:idx_round_match_turn;not null"`
	Turn               int   `json:"turn" gorm:"uniqueIndex:idx_round_match_turn;not null"`
	OwnerCreatureID    int   `json:"owner_creature_id"`
	OpponentCreatureID int   `json:"opponent_creature_id"`
	WinnerID           *uint `json:"winner_id"`
}

// IsDraw reports whether nobody won the round.
func (r *Round) IsDraw() bool { return r.WinnerID == nil }

// Deck is an ordered list of creatures owned by one user.
type Deck struct {
	gorm.Model
	AuthorID uint       `json:"author_id" gorm:"index;not null"`
	Cards    []DeckCard `json:"cards"`
}

// DeckCard is one slot of a deck. Position is 0-based.
type DeckCard struct {
	gorm.Model
	DeckID     uint `json:"-" gorm:"uniqueIndex:idx_deck_card_position;not null"`
	Position   int  `json:"position" gorm:"uniqueIndex:idx_deck_card_position"`
	CreatureID int  `json:"creature_id" gorm:"not null"`
}

// NewDeck builds an unsaved deck from creature ids in play order.
func NewDeck(authorID uint, creatureIDs []int) *Deck {
	d := &Deck{AuthorID: authorID}
	d.SetCards(creatureIDs)
	return d
}

// SetCards replaces the cards with creatureIDs in play order.
func (d *Deck) SetCards(creatureIDs []int) {
	d.Cards = make([]DeckCard, len(creatureIDs))
	for i, id := range creatureIDs {
		d.Cards[i] = DeckCard{DeckID: d.ID, Position: i, CreatureID: id}
	}
}

// CreatureIDs returns the creature ids ordered by position.
func (d *Deck) CreatureIDs() []int {
	if d == nil {
		return nil
	}
	cards := append([]DeckCard(nil), d.Cards...)
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Position < cards[j].Position })
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.CreatureID
	}
	return out
}

// Size is the number of cards in the deck.
func (d *Deck) Size() int {
	if d == nil {
		return 0
	}
	return len(d.Cards)
}

// User stores a player identity, taken from the session token, and aggregate
// match results.
type User struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Username  string `json:"username" gorm:"size:64"`
	Victories int    `json:"victories"`
	Defeats   int    `json:"defeats"`
	Draws     int    `json:"draws"`
}

// Store global users in a dedicated table named after what they hold.
func (User) TableName() string { return "player_profiles" }
