package game

import "sync"

// DamageFrom describes how a single type takes damage from attacking types.
type DamageFrom struct {
	Double TypeSet
	Half   TypeSet
	None   TypeSet
}

// Relations is the full damage relation profile of a type (or of a creature,
// when several types are combined with Union).
type Relations struct {
	DoubleDamageFrom TypeSet `json:"double_damage_from"`
	HalfDamageFrom   TypeSet `json:"half_damage_from"`
	NoDamageFrom     TypeSet `json:"no_damage_from"`
	DoubleDamageTo   TypeSet `json:"double_damage_to"`
	HalfDamageTo     TypeSet `json:"half_damage_to"`
	NoDamageTo       TypeSet `json:"no_damage_to"`
}

// Union merges two relation profiles set by set.
func (r Relations) Union(o Relations) Relations {
	return Relations{
		DoubleDamageFrom: r.DoubleDamageFrom.Union(o.DoubleDamageFrom),
		HalfDamageFrom:   r.HalfDamageFrom.Union(o.HalfDamageFrom),
		NoDamageFrom:     r.NoDamageFrom.Union(o.NoDamageFrom),
		DoubleDamageTo:   r.DoubleDamageTo.Union(o.DoubleDamageTo),
		HalfDamageTo:     r.HalfDamageTo.Union(o.HalfDamageTo),
		NoDamageTo:       r.NoDamageTo.Union(o.NoDamageTo),
	}
}

// TypeTable is the effectiveness chart. It is never modified after
// NewTypeTable returns, so it can be shared by any number of goroutines.
type TypeTable struct {
	relations [numTypes]Relations
}

// NewTypeTable builds a chart from the "damage from" side of each type. The
// "damage to" sets are derived as their inverses. TypeUnknown and any type
// missing from the map keep empty relations.
func NewTypeTable(from map[Type]DamageFrom) *TypeTable {
	tt := &TypeTable{}
	for def, df := range from {
		if def == TypeUnknown || def >= numTypes {
			continue
		}
		r := &tt.relations[def]
		r.DoubleDamageFrom = df.Double
		r.HalfDamageFrom = df.Half
		r.NoDamageFrom = df.None
		for _, atk := range df.Double.Types() {
			tt.relations[atk].DoubleDamageTo |= NewTypeSet(def)
		}
		for _, atk := range df.Half.Types() {
			tt.relations[atk].HalfDamageTo |= NewTypeSet(def)
		}
		for _, atk := range df.None.Types() {
			tt.relations[atk].NoDamageTo |= NewTypeSet(def)
		}
	}
	// attack sides recorded on TypeUnknown would leak into real profiles
	tt.relations[TypeUnknown] = Relations{}
	return tt
}

// Relations returns the profile of t. Unknown or out-of-range types are
// neutral: every set is empty.
func (tt *TypeTable) Relations(t Type) Relations {
	if tt == nil || t == TypeUnknown || t >= numTypes {
		return Relations{}
	}
	return tt.relations[t]
}

// Chart returns a copy of every known type's relations keyed by type.
func (tt *TypeTable) Chart() map[Type]Relations {
	out := make(map[Type]Relations, numTypes-1)
	for _, t := range ElementalTypes() {
		out[t] = tt.Relations(t)
	}
	return out
}

// DefaultTypeTable returns the built-in chart.
var DefaultTypeTable = sync.OnceValue(func() *TypeTable {
	return NewTypeTable(DefaultDamageFrom())
})

// DefaultDamageFrom returns the canonical chart as "damage from" entries.
func DefaultDamageFrom() map[Type]DamageFrom {
	return map[Type]DamageFrom{
		TypeNormal: {
			Double: NewTypeSet(TypeFighting),
			None:   NewTypeSet(TypeGhost),
		},
		TypeFire: {
			Double: NewTypeSet(TypeWater, TypeGround, TypeRock),
			Half:   NewTypeSet(TypeFire, TypeGrass, TypeIce, TypeBug, TypeSteel, TypeFairy),
		},
		TypeWater: {
			Double: NewTypeSet(TypeElectric, TypeGrass),
			Half:   NewTypeSet(TypeFire, TypeWater, TypeIce, TypeSteel),
		},
		TypeElectric: {
			Double: NewTypeSet(TypeGround),
			Half:   NewTypeSet(TypeElectric, TypeFlying, TypeSteel),
		},
		TypeGrass: {
			Double: NewTypeSet(TypeFire, TypeIce, TypePoison, TypeFlying, TypeBug),
			Half:   NewTypeSet(TypeWater, TypeElectric, TypeGrass, TypeGround),
		},
		TypeIce: {
			Double: NewTypeSet(TypeFire, TypeFighting, TypeRock, TypeSteel),
			Half:   NewTypeSet(TypeIce),
		},
		TypeFighting: {
			Double: NewTypeSet(TypeFlying, TypePsychic, TypeFairy),
			Half:   NewTypeSet(TypeBug, TypeRock, TypeDark),
		},
		TypePoison: {
			Double: NewTypeSet(TypeGround, TypePsychic),
			Half:   NewTypeSet(TypeGrass, TypeFighting, TypePoison, TypeBug, TypeFairy),
		},
		TypeGround: {
			Double: NewTypeSet(TypeWater, TypeGrass, TypeIce),
			Half:   NewTypeSet(TypePoison, TypeRock),
			None:   NewTypeSet(TypeElectric),
		},
		TypeFlying: {
			Double: NewTypeSet(TypeElectric, TypeIce, TypeRock),
			Half:   NewTypeSet(TypeGrass, TypeFighting, TypeBug),
			None:   NewTypeSet(TypeGround),
		},
		TypePsychic: {
			Double: NewTypeSet(TypeBug, TypeGhost, TypeDark),
			Half:   NewTypeSet(TypeFighting, TypePsychic),
		},
		TypeBug: {
			Double: NewTypeSet(TypeFire, TypeFlying, TypeRock),
			Half:   NewTypeSet(TypeGrass, TypeFighting, TypeGround),
		},
		TypeRock: {
			Double: NewTypeSet(TypeWater, TypeGrass, TypeFighting, TypeGround, TypeSteel),
			Half:   NewTypeSet(TypeNormal, TypeFire, TypePoison, TypeFlying),
		},
		TypeGhost: {
			Double: NewTypeSet(TypeGhost, TypeDark),
			Half:   NewTypeSet(TypePoison, TypeBug),
			None:   NewTypeSet(TypeNormal, TypeFighting),
		},
		TypeDragon: {
			Double: NewTypeSet(TypeIce, TypeDragon, TypeFairy),
			Half:   NewTypeSet(TypeFire, TypeWater, TypeElectric, TypeGrass),
		},
		TypeDark: {
			Double: NewTypeSet(TypeFighting, TypeBug, TypeFairy),
			Half:   NewTypeSet(TypeGhost, TypeDark),
			None:   NewTypeSet(TypePsychic),
		},
		TypeSteel: {
			Double: NewTypeSet(TypeFire, TypeFighting, TypeGround),
			Half: NewTypeSet(TypeNormal, TypeGrass, TypeIce, TypeFlying, TypePsychic,
				TypeBug, TypeRock, TypeDragon, TypeSteel, TypeFairy),
			None: NewTypeSet(TypePoison),
		},
		TypeFairy: {
			Double: NewTypeSet(TypePoison, TypeSteel),
			Half:   NewTypeSet(TypeFighting, TypeBug, TypeDark),
			None:   NewTypeSet(TypeDragon),
		},
	}
}
