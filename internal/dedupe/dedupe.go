package dedupe

// Package dedupe provides shared singleflight groups used to deduplicate
// concurrent upstream lookups (creatures, type relations and decks). Using
// a centralized singleflight.Group ensures that only one request runs for a
// given key while other callers wait for the result.

import "golang.org/x/sync/singleflight"

// CreatureGroup deduplicates creature type lookups keyed by
// keys.CreatureKey.
var CreatureGroup singleflight.Group

// TypeGroup deduplicates type relation lookups keyed by keys.TypeKey.
var TypeGroup singleflight.Group

// DeckGroup deduplicates remote deck lookups keyed by keys.DeckKey.
var DeckGroup singleflight.Group
