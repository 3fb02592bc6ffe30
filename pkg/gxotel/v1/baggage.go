package v1

// BaggageEntry is a single baggage value with optional opaque metadata.
type BaggageEntry struct {
	Value    string
	Metadata string
}

// Baggage is an immutable set of propagated key/value entries. Every mutator
// returns a new Baggage and leaves the receiver untouched.
type Baggage interface {
	// Entry returns the entry stored under key.
	Entry(key string) (BaggageEntry, bool)
	// AllEntries returns a copy of every entry.
	AllEntries() map[string]BaggageEntry
	// SetEntry returns a new Baggage with key set to entry.
	SetEntry(key string, entry BaggageEntry) Baggage
	// RemoveEntry returns a new Baggage without key.
	RemoveEntry(key string) Baggage
	// RemoveEntries returns a new Baggage without any of keys.
	RemoveEntries(keys ...string) Baggage
	// Clear returns an empty Baggage.
	Clear() Baggage
}
