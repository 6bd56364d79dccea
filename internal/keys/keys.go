package keys

import (
	"strconv"
	"strings"
)

// CreatureKey is the cache and dedupe key for a creature's type list.
func CreatureKey(id int) string {
	return "creature:" + strconv.Itoa(id)
}

// TypeKey is the dedupe key for a type's damage relations. The name is
// trimmed and lower-cased so "Fire" and "fire " share one request.
func TypeKey(name string) string {
	return "type:" + strings.ToLower(strings.TrimSpace(name))
}

// DeckKey is the dedupe key for a remote deck lookup made with credential.
// Different callers never share a result.
func DeckKey(deckID uint, credential string) string {
	return "deck:" + strconv.FormatUint(uint64(deckID), 10) + ":" + credential
}
