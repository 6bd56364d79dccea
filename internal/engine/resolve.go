package engine

import (
	"github.com/ericogr/pokeduel/internal/game"
)

// Creature is the battle view of a card: its id and elemental types.
type Creature struct {
	ID    int         `json:"id"`
	Types []game.Type `json:"types"`
}

// Outcome names which side won a resolution.
type Outcome int

const (
	Draw Outcome = iota
	FirstWins
	SecondWins
)

func (o Outcome) String() string {
	switch o {
	case FirstWins:
		return "first"
	case SecondWins:
		return "second"
	default:
		return "draw"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Result is the outcome of comparing two creatures. ScoreA and ScoreB are
// the incoming scores of the first and second creature; the side with the
// larger score loses.
type Result struct {
	Outcome Outcome `json:"outcome"`
	ScoreA  int     `json:"score_a"`
	ScoreB  int     `json:"score_b"`
	Summary string  `json:"summary"`
}

// Winner returns the winning creature, or nil on a draw.
func (r Result) Winner(a, b Creature) *Creature {
	switch r.Outcome {
	case FirstWins:
		return &a
	case SecondWins:
		return &b
	}
	return nil
}

// Profile folds the relations of every type into one profile. Unknown types
// contribute nothing.
func Profile(table *game.TypeTable, types []game.Type) game.Relations {
	var out game.Relations
	for _, t := range types {
		out = out.Union(table.Relations(t))
	}
	return out
}

// IncomingScore sums, over the attacker types, 2 for each type the defender
// takes double damage from and 1 for each type it takes half damage from.
func IncomingScore(defender game.Relations, attacker []game.Type) int {
	score := 0
	for _, t := range attacker {
		if defender.DoubleDamageFrom.Has(t) {
			score += 2
		}
		if defender.HalfDamageFrom.Has(t) {
			score++
		}
	}
	return score
}

// Engine resolves battles against one type table. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	table *game.TypeTable
}

// New returns an engine using table, or the built-in chart when table is nil.
func New(table *game.TypeTable) *Engine {
	if table == nil {
		table = game.DefaultTypeTable()
	}
	return &Engine{table: table}
}

// Table exposes the chart the engine was built with.
func (e *Engine) Table() *game.TypeTable { return e.table }

// Resolve compares two creatures. The creature taking the larger incoming
// score loses; equal scores are a draw.
func (e *Engine) Resolve(a, b Creature) Result {
	rc := newRoundContext()
	profA := Profile(e.table, a.Types)
	profB := Profile(e.table, b.Types)

	res := Result{
		ScoreA: IncomingScore(profA, b.Types),
		ScoreB: IncomingScore(profB, a.Types),
	}
	rc.add("#%d (%s) vs #%d (%s)", a.ID, typeNames(a.Types), b.ID, typeNames(b.Types))
	rc.explain("first", profA, b.Types)
	rc.explain("second", profB, a.Types)

	switch {
	case res.ScoreA > res.ScoreB:
		res.Outcome = SecondWins
	case res.ScoreA < res.ScoreB:
		res.Outcome = FirstWins
	default:
		res.Outcome = Draw
	}
	rc.add("score %d-%d: %s", res.ScoreA, res.ScoreB, res.Outcome)
	res.Summary = rc.joinSummary()
	return res
}
