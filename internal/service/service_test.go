package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ericogr/pokeduel/internal/engine"
	"github.com/ericogr/pokeduel/internal/events"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/storage"
)

type fakeCreatures struct {
	calls atomic.Int32
	// failures makes the first n calls fail as unavailable
	failures int32
	err      error
	types    map[int][]game.Type
}

func (f *fakeCreatures) CreatureTypes(ctx context.Context, id int) ([]game.Type, error) {
	n := f.calls.Add(1)
	if n <= f.failures {
		return nil, game.Unavailable("pokeapi down", errors.New("503"))
	}
	if f.err != nil {
		return nil, f.err
	}
	if ts, ok := f.types[id]; ok {
		return ts, nil
	}
	return []game.Type{game.TypeNormal}, nil
}

func newTestStore(t *testing.T) storage.Repository {
	t.Helper()
	db, err := storage.OpenAndMigrate("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return storage.NewGormRepository(db)
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxTries: 3, InitialInterval: time.Millisecond, Timeout: time.Second}
}

func newTestService(t *testing.T, creatures CreatureSource) (*Service, storage.Repository) {
	t.Helper()
	store := newTestStore(t)
	if creatures == nil {
		creatures = &fakeCreatures{}
	}
	return New(Deps{Store: store, Creatures: creatures, Retry: fastRetry()}), store
}

func uptr(v uint) *uint { return &v }

// readyMatch creates a match between users 1 and 2 with decks of the given
// cards.
func readyMatch(t *testing.T, s *Service, ownerCards, opponentCards []int) *game.Match {
	t.Helper()
	ctx := context.Background()
	ownerDeck, err := s.CreateDeck(ctx, 1, ownerCards)
	if err != nil {
		t.Fatalf("owner deck: %v", err)
	}
	opponentDeck, err := s.CreateDeck(ctx, 2, opponentCards)
	if err != nil {
		t.Fatalf("opponent deck: %v", err)
	}
	m, err := s.CreateMatch(ctx, CreateMatchRequest{OwnerID: 1, OpponentID: uptr(2), OwnerDeckID: &ownerDeck.ID})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	m, err = s.SelectDeck(ctx, SelectDeckRequest{MatchID: m.ID, UserID: 2, DeckID: opponentDeck.ID})
	if err != nil {
		t.Fatalf("select deck: %v", err)
	}
	return m
}

func TestSubmitRound_PlaysMatchToTheEnd(t *testing.T) {
	ctx := context.Background()
	creatures := &fakeCreatures{types: map[int][]game.Type{
		4: {game.TypeFire},
		1: {game.TypeGrass},
	}}
	s, _ := newTestService(t, creatures)
	m := readyMatch(t, s, []int{4, 7, 25}, []int{1, 8, 26})

	want := []game.MatchStatus{game.MatchStarted, game.MatchStarted, game.MatchFinished}
	for i, status := range want {
		res, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1})
		if err != nil {
			t.Fatalf("round %d: %v", i+1, err)
		}
		if res.Round.Turn != i+1 {
			t.Fatalf("expected turn %d, got %d", i+1, res.Round.Turn)
		}
		if res.Match.Status != status {
			t.Fatalf("turn %d: expected status %s, got %s", i+1, status, res.Match.Status)
		}
		if len(res.Match.Rounds) != i+1 {
			t.Fatalf("match view should hold %d rounds, got %d", i+1, len(res.Match.Rounds))
		}
	}

	// fire against grass: the owner took the first round
	rounds, err := s.ListRounds(ctx, m.ID, 2)
	if err != nil {
		t.Fatalf("list rounds: %v", err)
	}
	if rounds[0].WinnerID == nil || *rounds[0].WinnerID != 1 {
		t.Fatalf("expected owner to win turn 1, got %v", rounds[0].WinnerID)
	}
	if !rounds[1].IsDraw() {
		t.Fatalf("normal against normal should draw")
	}

	_, err = s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 2})
	if !errors.Is(err, game.ErrNoMoreRounds) || game.KindOf(err) != game.KindValidation {
		t.Fatalf("expected no more rounds, got %v", err)
	}
}

func TestSubmitRound_DeckShrunkMidMatch(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(t, nil)
	m := readyMatch(t, s, []int{4, 7, 25}, []int{1, 8, 26})

	for i := 0; i < 2; i++ {
		if _, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1}); err != nil {
			t.Fatalf("round %d: %v", i+1, err)
		}
	}
	if _, err := s.UpdateDeck(ctx, 2, *m.OpponentDeckID, []int{1, 8}); err != nil {
		t.Fatalf("update deck: %v", err)
	}

	_, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1})
	if !errors.Is(err, game.ErrInsufficientCards) {
		t.Fatalf("expected insufficient cards, got %v", err)
	}
	got, _ := store.GetMatchByID(ctx, m.ID)
	if got.Status != game.MatchStarted || len(got.Rounds) != 2 {
		t.Fatalf("match changed: status %s, %d rounds", got.Status, len(got.Rounds))
	}
}

func TestSubmitRound_Outsider(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(t, nil)
	m := readyMatch(t, s, []int{4}, []int{1})

	_, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 3})
	if !errors.Is(err, game.ErrNotAPlayer) || game.KindOf(err) != game.KindForbidden {
		t.Fatalf("expected not a player, got %v", err)
	}
	if n, _ := store.CountRounds(ctx, m.ID); n != 0 {
		t.Fatalf("outsider created %d rounds", n)
	}
}

func TestSubmitRound_AdmissionOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)

	waiting, err := s.CreateMatch(ctx, CreateMatchRequest{OwnerID: 1, InvitedUserID: uptr(2)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: waiting.ID, UserID: 1}); !errors.Is(err, game.ErrTwoPlayersRequired) {
		t.Fatalf("expected two players required, got %v", err)
	}
	if _, err := s.JoinMatch(ctx, waiting.ID, 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: waiting.ID, UserID: 2}); !errors.Is(err, game.ErrDeckNotCreated) {
		t.Fatalf("expected deck not created, got %v", err)
	}
	if _, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: 999, UserID: 2}); !errors.Is(err, game.ErrMatchNotFound) {
		t.Fatalf("expected match not found, got %v", err)
	}
}

func TestSubmitRound_ReplayWithTurn(t *testing.T) {
	ctx := context.Background()
	creatures := &fakeCreatures{types: map[int][]game.Type{
		4: {game.TypeFire},
		1: {game.TypeGrass},
	}}
	s, store := newTestService(t, creatures)
	m := readyMatch(t, s, []int{4, 7}, []int{1, 8})

	first, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1, Turn: 1})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.Battle == nil || first.Battle.Outcome != engine.FirstWins {
		t.Fatalf("expected the owner's fire to win, got %+v", first.Battle)
	}
	again, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 2, Turn: 1})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !again.Replayed || again.Round.ID != first.Round.ID {
		t.Fatalf("expected replay of round %d, got %+v", first.Round.ID, again.Round)
	}
	// the stored round is the only answer a replay gives
	if again.Battle != nil {
		t.Fatalf("replay must not report a battle, got %+v", again.Battle)
	}
	if again.Round.WinnerID == nil || *again.Round.WinnerID != 1 {
		t.Fatalf("replayed round should keep the owner as winner, got %v", again.Round.WinnerID)
	}
	if _, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 3, Turn: 1}); !errors.Is(err, game.ErrNotAPlayer) {
		t.Fatalf("outsider replay should be forbidden, got %v", err)
	}
	if _, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1, Turn: 5}); !errors.Is(err, game.ErrTurnConflict) {
		t.Fatalf("expected turn conflict, got %v", err)
	}
	if n, _ := store.CountRounds(ctx, m.ID); n != 1 {
		t.Fatalf("expected one round, got %d", n)
	}
}

func TestSubmitRound_RetriesUnavailable(t *testing.T) {
	ctx := context.Background()
	creatures := &fakeCreatures{failures: 2}
	s, _ := newTestService(t, creatures)
	m := readyMatch(t, s, []int{4}, []int{1})

	res, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1})
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if res.Match.Status != game.MatchFinished {
		t.Fatalf("single-card match should finish, got %s", res.Match.Status)
	}
}

func TestSubmitRound_PersistentOutageWritesNothing(t *testing.T) {
	ctx := context.Background()
	creatures := &fakeCreatures{failures: 1000}
	s, store := newTestService(t, creatures)
	m := readyMatch(t, s, []int{4}, []int{1})

	_, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1})
	if game.KindOf(err) != game.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if n, _ := store.CountRounds(ctx, m.ID); n != 0 {
		t.Fatalf("round persisted during outage")
	}
	// at most 3 tries for each of the 2 creatures
	if got := creatures.calls.Load(); got < 3 || got > 6 {
		t.Fatalf("expected 3 to 6 upstream calls, got %d", got)
	}
}

func TestSubmitRound_NotFoundIsNotRetried(t *testing.T) {
	ctx := context.Background()
	creatures := &fakeCreatures{err: game.ErrCreatureNotFound}
	s, _ := newTestService(t, creatures)
	m := readyMatch(t, s, []int{4}, []int{1})

	_, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1})
	if !errors.Is(err, game.ErrCreatureNotFound) {
		t.Fatalf("expected creature not found, got %v", err)
	}
	if got := creatures.calls.Load(); got > 2 {
		t.Fatalf("not found was retried: %d calls", got)
	}
}

func TestSubmitRound_ConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(t, nil)
	m := readyMatch(t, s, []int{1, 2, 3, 4, 5, 6, 7, 8}, []int{9, 10, 11, 12, 13, 14, 15, 16})

	var wg sync.WaitGroup
	errs := make(chan error, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(user uint) {
			defer wg.Done()
			_, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: user})
			errs <- err
		}(uint(i%2 + 1))
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, game.ErrTurnConflict), errors.Is(err, game.ErrNoMoreRounds):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rounds, err := store.ListRounds(ctx, m.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if ok == 0 || len(rounds) != ok {
		t.Fatalf("%d successes but %d rounds", ok, len(rounds))
	}
	turns := make([]int, len(rounds))
	for i, r := range rounds {
		turns[i] = r.Turn
	}
	sort.Ints(turns)
	for i, turn := range turns {
		if turn != i+1 {
			t.Fatalf("turns not contiguous: %v", turns)
		}
	}
}

func TestSubmitRound_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	bus := events.NewBus()
	var mu sync.Mutex
	var seen []string
	bus.SubscribeAll(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Name)
		return nil
	})
	s := New(Deps{Store: store, Creatures: &fakeCreatures{}, Bus: bus, Retry: fastRetry()})
	m := readyMatch(t, s, []int{4}, []int{1})

	if _, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := []string{"match.created", "match.deck_selected", "round.resolved", "match.finished"}
	if len(seen) != len(want) {
		t.Fatalf("expected events %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, seen)
		}
	}
}

func TestJoinMatch_Invitation(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(t, nil)
	m, err := s.CreateMatch(ctx, CreateMatchRequest{OwnerID: 1, InvitedUserID: uptr(2)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.JoinMatch(ctx, m.ID, 1); !errors.Is(err, game.ErrSelfJoin) {
		t.Fatalf("expected self join, got %v", err)
	}
	if _, err := s.JoinMatch(ctx, m.ID, 3); !errors.Is(err, game.ErrNotInvited) {
		t.Fatalf("expected not invited, got %v", err)
	}
	if invited, _ := s.ListInvitations(ctx, 2); len(invited) != 1 {
		t.Fatalf("expected one invitation, got %d", len(invited))
	}
	if _, err := s.JoinMatch(ctx, m.ID, 2); err != nil {
		t.Fatalf("join: %v", err)
	}
	got, _ := store.GetMatchByID(ctx, m.ID)
	if got.OpponentID == nil || *got.OpponentID != 2 || !got.Invitation.Resolved {
		t.Fatalf("opponent and invitation should be written together: %+v", got)
	}
	if _, err := s.JoinMatch(ctx, m.ID, 3); !errors.Is(err, game.ErrMatchFull) || game.KindOf(err) != game.KindConflict {
		t.Fatalf("expected match full, got %v", err)
	}
}

func TestSelectDeck_Rules(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)
	m := readyMatch(t, s, []int{4}, []int{1})

	foreign, _ := s.CreateDeck(ctx, 3, []int{7})
	if _, err := s.SelectDeck(ctx, SelectDeckRequest{MatchID: m.ID, UserID: 3, DeckID: foreign.ID}); !errors.Is(err, game.ErrNotAPlayer) {
		t.Fatalf("expected not a player, got %v", err)
	}
	if _, err := s.SelectDeck(ctx, SelectDeckRequest{MatchID: m.ID, UserID: 1, DeckID: foreign.ID}); !errors.Is(err, game.ErrDeckNotOwned) {
		t.Fatalf("expected deck not owned, got %v", err)
	}
	if _, err := s.SelectDeck(ctx, SelectDeckRequest{MatchID: m.ID, UserID: 1, DeckID: 999}); !errors.Is(err, game.ErrDeckNotFound) {
		t.Fatalf("expected deck not found, got %v", err)
	}

	if _, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	own, _ := s.CreateDeck(ctx, 1, []int{9})
	if _, err := s.SelectDeck(ctx, SelectDeckRequest{MatchID: m.ID, UserID: 1, DeckID: own.ID}); !errors.Is(err, game.ErrDecksLocked) {
		t.Fatalf("expected decks locked, got %v", err)
	}
}

func TestDecks_ValidationAndOwnership(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)

	if _, err := s.CreateDeck(ctx, 1, nil); !errors.Is(err, game.ErrDeckSize) {
		t.Fatalf("expected deck size, got %v", err)
	}
	if _, err := s.CreateDeck(ctx, 1, []int{4, 4}); !errors.Is(err, game.ErrDuplicateCreature) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	d, err := s.CreateDeck(ctx, 1, []int{4, 7})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.UpdateDeck(ctx, 2, d.ID, []int{1}); !errors.Is(err, game.ErrDeckNotOwned) {
		t.Fatalf("expected deck not owned, got %v", err)
	}
	updated, err := s.UpdateDeck(ctx, 1, d.ID, []int{25, 4, 7})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ids := updated.CreatureIDs(); len(ids) != 3 || ids[0] != 25 {
		t.Fatalf("unexpected cards %v", ids)
	}
	decks, _ := s.ListDecks(ctx, 1)
	if len(decks) != 1 {
		t.Fatalf("expected one deck, got %d", len(decks))
	}
}

func TestBattle_Preview(t *testing.T) {
	creatures := &fakeCreatures{types: map[int][]game.Type{
		4: {game.TypeFire},
		1: {game.TypeGrass, game.TypePoison},
	}}
	s, _ := newTestService(t, creatures)

	got, err := s.Battle(context.Background(), 4, 1)
	if err != nil {
		t.Fatalf("battle: %v", err)
	}
	if w := got.Result.Winner(got.First, got.Second); w == nil || w.ID != 4 {
		t.Fatalf("expected #4 to win, got %+v", got.Result)
	}
	if _, err := s.Battle(context.Background(), 0, 1); !errors.Is(err, game.ErrInvalidCreature) {
		t.Fatalf("expected invalid creature, got %v", err)
	}
}

func TestCreature(t *testing.T) {
	creatures := &fakeCreatures{
		failures: 1,
		types:    map[int][]game.Type{1: {game.TypeGrass, game.TypePoison}},
	}
	s, _ := newTestService(t, creatures)

	got, err := s.Creature(context.Background(), 1)
	if err != nil {
		t.Fatalf("creature: %v", err)
	}
	if got.ID != 1 || len(got.Types) != 2 || got.Types[0] != game.TypeGrass || got.Types[1] != game.TypePoison {
		t.Fatalf("unexpected creature %+v", got)
	}
	if creatures.calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", creatures.calls.Load())
	}
	if _, err := s.Creature(context.Background(), -3); !errors.Is(err, game.ErrInvalidCreature) {
		t.Fatalf("expected invalid creature, got %v", err)
	}
}

func TestReconcileStats(t *testing.T) {
	ctx := context.Background()
	creatures := &fakeCreatures{types: map[int][]game.Type{
		4: {game.TypeFire},
		1: {game.TypeGrass},
	}}
	s, _ := newTestService(t, creatures)
	won := readyMatch(t, s, []int{4}, []int{1})
	drawn := readyMatch(t, s, []int{7}, []int{8})
	for _, m := range []*game.Match{won, drawn} {
		if _, err := s.SubmitRound(ctx, SubmitRoundRequest{MatchID: m.ID, UserID: 1}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	n, err := s.ReconcileStats(ctx, 10)
	if err != nil || n != 2 {
		t.Fatalf("expected two matches counted, got %d %v", n, err)
	}
	if n, _ := s.ReconcileStats(ctx, 10); n != 0 {
		t.Fatalf("matches counted twice")
	}
	owner, err := s.Me(ctx, 1)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if owner.Victories != 1 || owner.Draws != 1 || owner.Defeats != 0 {
		t.Fatalf("unexpected owner stats %+v", owner)
	}
	top, _ := s.Leaderboard(ctx, 1)
	if len(top) != 1 || top[0].ID != 1 {
		t.Fatalf("unexpected leaderboard %+v", top)
	}
}
