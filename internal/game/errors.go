package game

import (
	"errors"
	"fmt"
)

// Kind classifies domain errors so transports can map them to a status.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindForbidden
	KindConflict
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a classified domain error. Sentinel values below are compared with
// errors.Is; wrapped causes stay reachable through Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation builds a validation error with a formatted message.
func Validation(format string, args ...any) error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

// Unavailable marks err as a transient upstream failure.
func Unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == KindUnavailable
}

// PublicMessage returns the message safe to show to clients. Internal errors
// are never exposed.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}

var (
	ErrNoMoreRounds       = newError(KindValidation, "no more rounds allowed")
	ErrTwoPlayersRequired = newError(KindValidation, "two players required")
	ErrNotAPlayer         = newError(KindForbidden, "not a player")
	ErrDeckNotCreated     = newError(KindValidation, "deck not created")
	ErrInsufficientCards  = newError(KindValidation, "insufficient cards")
	ErrMatchFull          = newError(KindConflict, "match is full")
	ErrSelfJoin           = newError(KindValidation, "cannot join your own match")
	ErrNotInvited         = newError(KindForbidden, "you are not invited to this match")
	ErrDeckNotOwned       = newError(KindForbidden, "deck is private")
	ErrDecksLocked        = newError(KindValidation, "decks are locked once the match has started")
	ErrDeckSize           = newError(KindValidation, fmt.Sprintf("deck must hold between %d and %d cards", MinDeckSize, MaxDeckSize))
	ErrDuplicateCreature  = newError(KindValidation, "deck cannot repeat a creature")
	ErrInvalidCreature    = newError(KindValidation, "creature id must be positive")
	ErrInvalidOpponent    = newError(KindValidation, "opponent and invitation must name another user, not both")
	ErrTurnConflict       = newError(KindConflict, "turn already resolved or out of order")

	ErrMatchNotFound    = newError(KindNotFound, "match not found")
	ErrDeckNotFound     = newError(KindNotFound, "deck not found")
	ErrRoundNotFound    = newError(KindNotFound, "round not found")
	ErrCreatureNotFound = newError(KindNotFound, "creature not found")
	ErrUserNotFound     = newError(KindNotFound, "user not found")
)
