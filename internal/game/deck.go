package game

const (
	MinDeckSize = 1
	MaxDeckSize = 10
)

// ValidateDeck checks the shape of a deck before it is stored: between
// MinDeckSize and MaxDeckSize cards, positive ids, no creature twice.
func ValidateDeck(creatureIDs []int) error {
	if len(creatureIDs) < MinDeckSize || len(creatureIDs) > MaxDeckSize {
		return ErrDeckSize
	}
	seen := make(map[int]struct{}, len(creatureIDs))
	for _, id := range creatureIDs {
		if id <= 0 {
			return ErrInvalidCreature
		}
		if _, dup := seen[id]; dup {
			return ErrDuplicateCreature
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ReadyForMatch reports whether both decks still hold a card for turn
// (1-based).
func ReadyForMatch(a, b *Deck, turn int) error {
	if turn < 1 || MinSize(a, b) < turn {
		return ErrInsufficientCards
	}
	return nil
}

// MinSize is the size of the smaller deck; it bounds the number of rounds.
func MinSize(a, b *Deck) int {
	return min(a.Size(), b.Size())
}

// CardAt returns the creature played at turn (1-based).
func (d *Deck) CardAt(turn int) (int, error) {
	ids := d.CreatureIDs()
	if turn < 1 || turn > len(ids) {
		return 0, ErrInsufficientCards
	}
	return ids[turn-1], nil
}
