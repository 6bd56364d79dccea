package engine

import (
	"fmt"
	"strings"

	"github.com/ericogr/pokeduel/internal/game"
)

// --- Round context and helpers ----------------------------------------
type roundContext struct {
	summary []string
}

func newRoundContext() *roundContext {
	return &roundContext{summary: make([]string, 0, 8)}
}

func (rc *roundContext) add(format string, args ...any) {
	rc.summary = append(rc.summary, fmt.Sprintf(format, args...))
}

// explain records how each attacker type scored against the defender.
func (rc *roundContext) explain(label string, defender game.Relations, attacker []game.Type) {
	for _, t := range attacker {
		if defender.DoubleDamageFrom.Has(t) {
			rc.add("%s takes double damage from %s (+2)", label, t)
		}
		if defender.HalfDamageFrom.Has(t) {
			rc.add("%s takes half damage from %s (+1)", label, t)
		}
	}
}

// joinSummary returns the accumulated summary as a single string.
func (rc *roundContext) joinSummary() string {
	return strings.Join(rc.summary, "\n")
}

func typeNames(types []game.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, "/")
}
