package pokeapi

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ericogr/pokeduel/internal/dedupe"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/keys"
)

// CachedTypeRelations is TypeRelations with concurrent lookups of the same
// type collapsed into one request.
func (c *Client) CachedTypeRelations(ctx context.Context, name string) (*TypeRelations, error) {
	v, err, _ := dedupe.TypeGroup.Do(keys.TypeKey(name), func() (interface{}, error) {
		return c.TypeRelations(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*TypeRelations), nil
}

// FetchDamageFrom downloads the "damage from" relations of every known type.
func FetchDamageFrom(ctx context.Context, c *Client) (map[game.Type]game.DamageFrom, error) {
	var (
		mu  sync.Mutex
		out = make(map[game.Type]game.DamageFrom)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, t := range game.ElementalTypes() {
		g.Go(func() error {
			rel, err := c.CachedTypeRelations(gctx, t.String())
			if err != nil {
				return fmt.Errorf("type %s: %w", t, err)
			}
			df := game.DamageFrom{
				Double: toSet(rel.DoubleDamageFrom),
				Half:   toSet(rel.HalfDamageFrom),
				None:   toSet(rel.NoDamageFrom),
			}
			mu.Lock()
			out[t] = df
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadTypeTable builds a type table from PokeAPI.
func LoadTypeTable(ctx context.Context, c *Client) (*game.TypeTable, error) {
	from, err := FetchDamageFrom(ctx, c)
	if err != nil {
		return nil, err
	}
	return game.NewTypeTable(from), nil
}

// ChartDiff is one relation that differs between two charts.
type ChartDiff struct {
	Defender game.Type
	Relation string
	Want     game.TypeSet
	Got      game.TypeSet
}

func (d ChartDiff) String() string {
	return fmt.Sprintf("%s %s: builtin=%s remote=%s", d.Defender, d.Relation, d.Want, d.Got)
}

// DiffDamageFrom compares two "damage from" charts, reporting differences
// in type order.
func DiffDamageFrom(want, got map[game.Type]game.DamageFrom) []ChartDiff {
	var out []ChartDiff
	for _, t := range game.ElementalTypes() {
		w, g := want[t], got[t]
		if w.Double != g.Double {
			out = append(out, ChartDiff{t, "double_damage_from", w.Double, g.Double})
		}
		if w.Half != g.Half {
			out = append(out, ChartDiff{t, "half_damage_from", w.Half, g.Half})
		}
		if w.None != g.None {
			out = append(out, ChartDiff{t, "no_damage_from", w.None, g.None})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Defender < out[j].Defender })
	return out
}

func toSet(names []string) game.TypeSet {
	var s game.TypeSet
	for _, n := range names {
		if t := game.ParseType(n); t != game.TypeUnknown {
			s = s.Union(game.NewTypeSet(t))
		}
	}
	return s
}
