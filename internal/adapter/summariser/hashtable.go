package summariser

import (
	"crypto/sha256"
	"encoding/hex"

	"tokentrim/internal/domain"
)

const (
	keyHexLen   = 6
	keyHexRange = sha256.Size * 2
)

// HashTable maps short digest keys to the patterns they replace. It lives
// for a single summarisation.
type HashTable struct {
	entries []domain.HashEntry
	byKey   map[string]int
}

func NewHashTable() *HashTable {
	return &HashTable{byKey: make(map[string]int)}
}

// Add registers pattern and returns its key: "#" plus the first six hex
// digits of its SHA-256. When the key is held by a different pattern the
// key is widened two digits at a time until it is free or matches.
func (t *HashTable) Add(pattern string, occurrences int) string {
	sum := sha256.Sum256([]byte(pattern))
	digest := hex.EncodeToString(sum[:])

	for n := keyHexLen; ; n += 2 {
		if n > keyHexRange {
			n = keyHexRange
		}
		key := "#" + digest[:n]
		i, ok := t.byKey[key]
		if !ok {
			t.byKey[key] = len(t.entries)
			t.entries = append(t.entries, domain.HashEntry{Key: key, Pattern: pattern, Occurrences: occurrences})
			return key
		}
		if t.entries[i].Pattern == pattern || n == keyHexRange {
			t.entries[i].Occurrences += occurrences
			return key
		}
	}
}

// Entries returns the entries in insertion order.
func (t *HashTable) Entries() []domain.HashEntry {
	out := make([]domain.HashEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *HashTable) DecodeMap() map[string]string {
	m := make(map[string]string, len(t.entries))
	for _, e := range t.entries {
		m[e.Key] = e.Pattern
	}
	return m
}

func (t *HashTable) Len() int {
	return len(t.entries)
}
