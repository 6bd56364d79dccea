package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/ericogr/pokeduel/internal/game"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	db, err := OpenAndMigrate("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormRepository(db)
}

func uptr(v uint) *uint { return &v }

func TestMatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	m, err := game.NewMatch(1, nil, uptr(2))
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	if err := repo.CreateMatch(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetMatchByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != game.MatchPending || got.Invitation == nil || got.Invitation.UserID != 2 || got.Invitation.Resolved {
		t.Fatalf("unexpected match %+v", got)
	}

	invited, err := repo.ListInvitedMatches(ctx, 2)
	if err != nil || len(invited) != 1 || invited[0].ID != m.ID {
		t.Fatalf("expected one invitation, got %v %v", invited, err)
	}

	if _, err := repo.GetMatchByID(ctx, 999); !errors.Is(err, game.ErrMatchNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJoinInTransaction(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m, _ := game.NewMatch(1, nil, uptr(2))
	if err := repo.CreateMatch(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := repo.InTx(ctx, func(tx Tx) error {
		locked, err := tx.LockMatch(m.ID)
		if err != nil {
			return err
		}
		if err := game.Join(locked, 2); err != nil {
			return err
		}
		if err := tx.SaveMatch(locked); err != nil {
			return err
		}
		return tx.SaveInvitation(locked.Invitation)
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	got, _ := repo.GetMatchByID(ctx, m.ID)
	if got.OpponentID == nil || *got.OpponentID != 2 || !got.Invitation.Resolved {
		t.Fatalf("join not persisted: %+v", got)
	}
	if invited, _ := repo.ListInvitedMatches(ctx, 2); len(invited) != 0 {
		t.Fatalf("resolved invitation still listed")
	}
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m, _ := game.NewMatch(1, uptr(2), nil)
	_ = repo.CreateMatch(ctx, m)

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(tx Tx) error {
		locked, _ := tx.LockMatch(m.ID)
		locked.Status = game.MatchStarted
		if err := tx.SaveMatch(locked); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, _ := repo.GetMatchByID(ctx, m.ID)
	if got.Status != game.MatchPending {
		t.Fatalf("rollback did not restore status: %v", got.Status)
	}
}

func TestCreateRound_DuplicateTurnConflicts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m, _ := game.NewMatch(1, uptr(2), nil)
	_ = repo.CreateMatch(ctx, m)

	insert := func(turn int) error {
		return repo.InTx(ctx, func(tx Tx) error {
			return tx.CreateRound(&game.Round{MatchID: m.ID, Turn: turn, OwnerCreatureID: 1, OpponentCreatureID: 4})
		})
	}
	if err := insert(1); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := insert(1); !errors.Is(err, game.ErrTurnConflict) {
		t.Fatalf("expected turn conflict, got %v", err)
	}
	if n, _ := repo.CountRounds(ctx, m.ID); n != 1 {
		t.Fatalf("expected one round, got %d", n)
	}
	r, err := repo.FindRoundByTurn(ctx, m.ID, 1)
	if err != nil || r.OwnerCreatureID != 1 {
		t.Fatalf("find by turn: %v %v", r, err)
	}
	if _, err := repo.FindRoundByTurn(ctx, m.ID, 2); !errors.Is(err, game.ErrRoundNotFound) {
		t.Fatalf("expected round not found, got %v", err)
	}
}

func TestDeckCardsReplaced(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	d := game.NewDeck(3, []int{4, 1, 7})
	if err := repo.CreateDeck(ctx, d); err != nil {
		t.Fatalf("create deck: %v", err)
	}
	got, err := repo.GetDeckByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("get deck: %v", err)
	}
	if ids := got.CreatureIDs(); len(ids) != 3 || ids[0] != 4 || ids[2] != 7 {
		t.Fatalf("unexpected cards %v", ids)
	}

	err = repo.InTx(ctx, func(tx Tx) error { return tx.ReplaceDeckCards(d.ID, []int{25, 4}) })
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ = repo.GetDeckByID(ctx, d.ID)
	if ids := got.CreatureIDs(); len(ids) != 2 || ids[0] != 25 || ids[1] != 4 {
		t.Fatalf("cards not replaced: %v", ids)
	}
	decks, _ := repo.ListDecksByAuthor(ctx, 3)
	if len(decks) != 1 {
		t.Fatalf("expected one deck, got %d", len(decks))
	}
}

func TestUsersAndLeaderboard(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.UpsertUser(ctx, 1, "ash"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.UpsertUser(ctx, 1, "ash2"); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	_ = repo.UpsertUser(ctx, 2, "misty")

	err := repo.InTx(ctx, func(tx Tx) error {
		if err := tx.AddUserResult(2, 1, 0, 0); err != nil {
			return err
		}
		if err := tx.AddUserResult(1, 0, 1, 0); err != nil {
			return err
		}
		// unknown users are created on the fly
		return tx.AddUserResult(3, 0, 0, 1)
	})
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	u, err := repo.GetUserByID(ctx, 1)
	if err != nil || u.Username != "ash2" || u.Defeats != 1 {
		t.Fatalf("unexpected user %+v %v", u, err)
	}
	top, _ := repo.GetTopPlayers(ctx, 2)
	if len(top) != 2 || top[0].ID != 2 || top[1].ID != 3 {
		t.Fatalf("unexpected leaderboard %+v", top)
	}
	if _, err := repo.GetUserByID(ctx, 42); !errors.Is(err, game.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestFindUncountedFinishedMatches(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, st := range []game.MatchStatus{game.MatchFinished, game.MatchStarted, game.MatchFinished} {
		m, _ := game.NewMatch(1, uptr(2), nil)
		m.Status = st
		_ = repo.CreateMatch(ctx, m)
	}
	got, err := repo.FindUncountedFinishedMatches(ctx, 10)
	if err != nil || len(got) != 2 {
		t.Fatalf("expected two finished matches, got %d %v", len(got), err)
	}
	mine, _ := repo.ListMatchesForUser(ctx, 2, game.MatchStarted)
	if len(mine) != 1 {
		t.Fatalf("expected one started match, got %d", len(mine))
	}
}
