package game

import (
	"encoding/json"
	"math/bits"
	"strings"
)

// Type is an elemental creature type. The set is closed: names coming from
// the creature database are mapped with ParseType and anything unrecognized
// becomes TypeUnknown.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeNormal
	TypeFire
	TypeWater
	TypeElectric
	TypeGrass
	TypeIce
	TypeFighting
	TypePoison
	TypeGround
	TypeFlying
	TypePsychic
	TypeBug
	TypeRock
	TypeGhost
	TypeDragon
	TypeDark
	TypeSteel
	TypeFairy

	numTypes
)

var typeNames = [numTypes]string{
	TypeUnknown:  "unknown",
	TypeNormal:   "normal",
	TypeFire:     "fire",
	TypeWater:    "water",
	TypeElectric: "electric",
	TypeGrass:    "grass",
	TypeIce:      "ice",
	TypeFighting: "fighting",
	TypePoison:   "poison",
	TypeGround:   "ground",
	TypeFlying:   "flying",
	TypePsychic:  "psychic",
	TypeBug:      "bug",
	TypeRock:     "rock",
	TypeGhost:    "ghost",
	TypeDragon:   "dragon",
	TypeDark:     "dark",
	TypeSteel:    "steel",
	TypeFairy:    "fairy",
}

var typesByName = func() map[string]Type {
	m := make(map[string]Type, numTypes)
	for t := TypeUnknown; t < numTypes; t++ {
		m[typeNames[t]] = t
	}
	return m
}()

// ElementalTypes lists every known type, TypeUnknown excluded.
func ElementalTypes() []Type {
	out := make([]Type, 0, numTypes-1)
	for t := TypeNormal; t < numTypes; t++ {
		out = append(out, t)
	}
	return out
}

// ParseType maps a creature database type name to a Type. Matching is
// case-insensitive; unknown names yield TypeUnknown.
func ParseType(name string) Type {
	if t, ok := typesByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return TypeUnknown
}

// ParseTypes maps every name with ParseType. An empty input yields a single
// TypeUnknown so a creature always has at least one type.
func ParseTypes(names []string) []Type {
	if len(names) == 0 {
		return []Type{TypeUnknown}
	}
	out := make([]Type, 0, len(names))
	for _, n := range names {
		out = append(out, ParseType(n))
	}
	return out
}

func (t Type) String() string {
	if t >= numTypes {
		return typeNames[TypeUnknown]
	}
	return typeNames[t]
}

// MarshalText encodes the type by name so JSON payloads stay readable.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts any name; unknown names decode to TypeUnknown.
func (t *Type) UnmarshalText(b []byte) error {
	*t = ParseType(string(b))
	return nil
}

// TypeSet is an immutable set of types stored as a bitset.
type TypeSet uint32

// NewTypeSet builds a set from the given types.
func NewTypeSet(types ...Type) TypeSet {
	var s TypeSet
	for _, t := range types {
		if t < numTypes {
			s |= 1 << t
		}
	}
	return s
}

// Has reports whether t is in the set.
func (s TypeSet) Has(t Type) bool {
	return t < numTypes && s&(1<<t) != 0
}

// Union returns the union of both sets.
func (s TypeSet) Union(o TypeSet) TypeSet { return s | o }

// Len returns the number of types in the set.
func (s TypeSet) Len() int { return bits.OnesCount32(uint32(s)) }

// Types returns the members in enumeration order.
func (s TypeSet) Types() []Type {
	out := make([]Type, 0, s.Len())
	for t := TypeUnknown; t < numTypes; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Names returns the member names in enumeration order.
func (s TypeSet) Names() []string {
	types := s.Types()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

func (s TypeSet) String() string {
	return "{" + strings.Join(s.Names(), ",") + "}"
}

// MarshalJSON renders the set as a list of type names.
func (s TypeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *TypeSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	var out TypeSet
	for _, n := range names {
		out |= NewTypeSet(ParseType(n))
	}
	*s = out
	return nil
}
