package pokeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ericogr/pokeduel/internal/game"
)

func chartServer(t *testing.T, from map[game.Type]game.DamageFrom) *httptest.Server {
	t.Helper()
	res := func(s game.TypeSet) []map[string]string {
		out := []map[string]string{}
		for _, n := range s.Names() {
			out = append(out, map[string]string{"name": n})
		}
		return out
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/type/"), "/")
		df, ok := from[game.ParseType(name)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body := map[string]interface{}{
			"name": name,
			"damage_relations": map[string]interface{}{
				"double_damage_from": res(df.Double),
				"half_damage_from":   res(df.Half),
				"no_damage_from":     res(df.None),
			},
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadTypeTable_MatchesBuiltin(t *testing.T) {
	builtin := game.DefaultDamageFrom()
	c := New(chartServer(t, builtin).URL, time.Second)

	remote, err := FetchDamageFrom(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diffs := DiffDamageFrom(builtin, remote); len(diffs) != 0 {
		t.Fatalf("expected no differences, got %v", diffs)
	}
	tt, err := LoadTypeTable(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tt.Relations(game.TypeFire).DoubleDamageTo.Has(game.TypeGrass) {
		t.Fatalf("loaded table should derive damage-to sets")
	}
}

func TestDiffDamageFrom_ReportsChanges(t *testing.T) {
	builtin := game.DefaultDamageFrom()
	changed := game.DefaultDamageFrom()
	fire := changed[game.TypeFire]
	fire.Double = game.NewTypeSet(game.TypeWater)
	changed[game.TypeFire] = fire

	diffs := DiffDamageFrom(builtin, changed)
	if len(diffs) != 1 || diffs[0].Defender != game.TypeFire || diffs[0].Relation != "double_damage_from" {
		t.Fatalf("unexpected diffs %v", diffs)
	}
}

func TestLoadTypeTable_FailsOnMissingType(t *testing.T) {
	partial := map[game.Type]game.DamageFrom{game.TypeFire: {}}
	c := New(chartServer(t, partial).URL, time.Second)
	if _, err := LoadTypeTable(context.Background(), c); err == nil {
		t.Fatalf("expected error when a type is missing")
	}
}
