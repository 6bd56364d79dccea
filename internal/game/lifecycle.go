package game

// NewMatch builds a pending match. A direct opponent and an invitation are
// mutually exclusive and neither may name the owner. With an invitation the
// opponent slot stays empty until the invited user joins.
func NewMatch(ownerID uint, opponentID, invitedUserID *uint) (*Match, error) {
	if opponentID != nil && invitedUserID != nil {
		return nil, ErrInvalidOpponent
	}
	if (opponentID != nil && *opponentID == ownerID) || (invitedUserID != nil && *invitedUserID == ownerID) {
		return nil, ErrInvalidOpponent
	}
	m := &Match{OwnerID: ownerID, Status: MatchPending}
	if opponentID != nil {
		id := *opponentID
		m.OpponentID = &id
	}
	if invitedUserID != nil {
		m.Invitation = &Invitation{UserID: *invitedUserID}
	}
	return m, nil
}

// Join seats userID as the opponent and resolves the invitation, if any.
// The caller must persist both changes together.
func Join(m *Match, userID uint) error {
	if userID == m.OwnerID {
		return ErrSelfJoin
	}
	if m.OpponentID != nil {
		return ErrMatchFull
	}
	inv := m.Invitation
	if inv != nil && !inv.Resolved && inv.UserID != userID {
		return ErrNotInvited
	}
	id := userID
	m.OpponentID = &id
	if inv != nil && !inv.Resolved {
		inv.Resolved = true
	}
	return nil
}

// SelectDeck assigns deck to the side userID plays. Decks can only change
// while the match is pending.
func SelectDeck(m *Match, userID uint, deck *Deck) error {
	if !m.IsParticipant(userID) {
		return ErrNotAPlayer
	}
	if deck == nil || deck.AuthorID != userID {
		return ErrDeckNotOwned
	}
	if m.Status != MatchPending {
		return ErrDecksLocked
	}
	id := deck.ID
	if m.OwnerID == userID {
		m.OwnerDeckID = &id
	} else {
		m.OpponentDeckID = &id
	}
	return nil
}

// AdmitRound is the gate in front of every round submission.
func AdmitRound(m *Match, userID uint) error {
	switch {
	case m.Status == MatchFinished:
		return ErrNoMoreRounds
	case !m.HasTwoPlayers():
		return ErrTwoPlayersRequired
	case !m.IsParticipant(userID):
		return ErrNotAPlayer
	case !m.HasDecks():
		return ErrDeckNotCreated
	}
	return nil
}

// AdvanceAfterRound computes the status after turn was played. The last
// turn finishes the match, the first one starts it, any other leaves it as
// is. A finished match never moves.
func AdvanceAfterRound(m *Match, turn, minDeckSize int) MatchStatus {
	next := m.Status
	switch {
	case turn == minDeckSize:
		next = MatchFinished
	case turn == 1:
		next = MatchStarted
	}
	if next.rank() < m.Status.rank() {
		next = m.Status
	}
	m.Status = next
	return next
}
