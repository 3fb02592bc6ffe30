package otelprovider

import (
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	"go.opentelemetry.io/otel/baggage"
)

// metadataProperty is the member property holding BaggageEntry.Metadata.
const metadataProperty = "metadata"

// Baggage wraps an OpenTelemetry baggage value. Entries rejected by
// OpenTelemetry (invalid UTF-8, size limits) leave the baggage unchanged.
type Baggage struct {
	bag baggage.Baggage
}

var emptyBaggage = &Baggage{}

// Entry returns the member named key.
func (b *Baggage) Entry(key string) (gxotel.BaggageEntry, bool) {
	m := b.bag.Member(key)
	if m.Key() == "" {
		return gxotel.BaggageEntry{}, false
	}
	return toEntry(m), true
}

// AllEntries returns every member as an entry.
func (b *Baggage) AllEntries() map[string]gxotel.BaggageEntry {
	members := b.bag.Members()
	out := make(map[string]gxotel.BaggageEntry, len(members))
	for _, m := range members {
		out[m.Key()] = toEntry(m)
	}
	return out
}

// SetEntry returns b with key set, or b itself when OpenTelemetry rejects the member.
func (b *Baggage) SetEntry(key string, entry gxotel.BaggageEntry) gxotel.Baggage {
	var props []baggage.Property
	if entry.Metadata != "" {
		p, err := baggage.NewKeyValuePropertyRaw(metadataProperty, entry.Metadata)
		if err == nil {
			props = append(props, p)
		}
	}
	m, err := baggage.NewMemberRaw(key, entry.Value, props...)
	if err != nil {
		return b
	}
	next, err := b.bag.SetMember(m)
	if err != nil {
		return b
	}
	return &Baggage{bag: next}
}

// RemoveEntry returns b without key.
func (b *Baggage) RemoveEntry(key string) gxotel.Baggage {
	return &Baggage{bag: b.bag.DeleteMember(key)}
}

// RemoveEntries returns b without keys.
func (b *Baggage) RemoveEntries(keys ...string) gxotel.Baggage {
	next := b.bag
	for _, k := range keys {
		next = next.DeleteMember(k)
	}
	return &Baggage{bag: next}
}

// Clear returns the empty baggage.
func (b *Baggage) Clear() gxotel.Baggage { return emptyBaggage }

// Unwrap returns the OpenTelemetry baggage.
func (b *Baggage) Unwrap() baggage.Baggage { return b.bag }

func toEntry(m baggage.Member) gxotel.BaggageEntry {
	entry := gxotel.BaggageEntry{Value: m.Value()}
	for _, p := range m.Properties() {
		if p.Key() == metadataProperty {
			entry.Metadata, _ = p.Value()
			break
		}
	}
	return entry
}

// toOtelBaggage converts baggage from any backend.
func toOtelBaggage(b gxotel.Baggage) baggage.Baggage {
	if ob, ok := b.(*Baggage); ok && ob != nil {
		return ob.bag
	}
	if b == nil {
		return baggage.Baggage{}
	}
	var out gxotel.Baggage = emptyBaggage
	for k, e := range b.AllEntries() {
		out = out.SetEntry(k, e)
	}
	return out.(*Baggage).bag
}

var _ gxotel.Baggage = (*Baggage)(nil)
