package noop

import (
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
)

// Baggage is an immutable map of baggage entries.
type Baggage struct {
	entries map[string]gxotel.BaggageEntry
}

var emptyBaggage = &Baggage{}

// EmptyBaggage returns the shared empty baggage.
func EmptyBaggage() gxotel.Baggage { return emptyBaggage }

// NewBaggage returns baggage holding a copy of entries.
func NewBaggage(entries map[string]gxotel.BaggageEntry) gxotel.Baggage {
	if len(entries) == 0 {
		return emptyBaggage
	}
	return &Baggage{entries: copyEntries(entries, len(entries))}
}

// Entry returns the entry stored under key.
func (b *Baggage) Entry(key string) (gxotel.BaggageEntry, bool) {
	e, ok := b.entries[key]
	return e, ok
}

// AllEntries returns a copy of every entry.
func (b *Baggage) AllEntries() map[string]gxotel.BaggageEntry {
	return copyEntries(b.entries, len(b.entries))
}

// SetEntry returns a copy of b with key set.
func (b *Baggage) SetEntry(key string, entry gxotel.BaggageEntry) gxotel.Baggage {
	next := copyEntries(b.entries, len(b.entries)+1)
	next[key] = entry
	return &Baggage{entries: next}
}

// RemoveEntry returns a copy of b without key.
func (b *Baggage) RemoveEntry(key string) gxotel.Baggage {
	return b.RemoveEntries(key)
}

// RemoveEntries returns a copy of b without keys.
func (b *Baggage) RemoveEntries(keys ...string) gxotel.Baggage {
	next := copyEntries(b.entries, len(b.entries))
	for _, k := range keys {
		delete(next, k)
	}
	return &Baggage{entries: next}
}

// Clear returns the empty baggage.
func (b *Baggage) Clear() gxotel.Baggage {
	return emptyBaggage
}

func copyEntries(src map[string]gxotel.BaggageEntry, size int) map[string]gxotel.BaggageEntry {
	dst := make(map[string]gxotel.BaggageEntry, size)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

var _ gxotel.Baggage = (*Baggage)(nil)
