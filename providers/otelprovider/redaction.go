package otelprovider

import (
	"strings"

	"github.com/gxo-labs/gxotel/internal/secrets"
	"go.opentelemetry.io/otel/attribute"
)

// RedactedValue replaces sensitive attribute values and message fragments.
const RedactedValue = "[REDACTED]"

// redactor scrubs sensitive data before it reaches the SDK. Attribute keys
// containing a keyword have their value replaced; free text has the value
// following a keyword replaced; tracked secret values are masked everywhere.
// A nil redactor passes everything through.
type redactor struct {
	keywords []string
	tracker  *secrets.SecretTracker
}

func newRedactor(keywords []string, tracker *secrets.SecretTracker) *redactor {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &redactor{keywords: lowered, tracker: tracker}
}

func (r *redactor) sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (r *redactor) attribute(kv attribute.KeyValue) attribute.KeyValue {
	if r == nil {
		return kv
	}
	if r.sensitiveKey(string(kv.Key)) {
		return kv.Key.String(RedactedValue)
	}
	switch kv.Value.Type() {
	case attribute.STRING:
		if r.tracker != nil {
			return kv.Key.String(r.tracker.Redact(kv.Value.AsString(), RedactedValue))
		}
	case attribute.STRINGSLICE:
		if r.tracker != nil {
			vals := kv.Value.AsStringSlice()
			for i, v := range vals {
				vals[i] = r.tracker.Redact(v, RedactedValue)
			}
			return kv.Key.StringSlice(vals)
		}
	}
	return kv
}

func (r *redactor) attributes(kvs []attribute.KeyValue) []attribute.KeyValue {
	if r == nil || len(kvs) == 0 {
		return kvs
	}
	out := make([]attribute.KeyValue, len(kvs))
	for i, kv := range kvs {
		out[i] = r.attribute(kv)
	}
	return out
}

// message scrubs free text such as exception messages and status
// descriptions.
func (r *redactor) message(s string) string {
	if r == nil || s == "" {
		return s
	}
	if r.tracker != nil {
		s = r.tracker.Redact(s, RedactedValue)
	}
	return redactAfterKeywords(s, r.keywords)
}

// redactAfterKeywords replaces, line by line, everything after the first
// keyword and its separators (":", "=", quotes, spaces) with RedactedValue.
func redactAfterKeywords(input string, keywords []string) string {
	if len(keywords) == 0 || input == "" {
		return input
	}

	redacted := false
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lowerLine := strings.ToLower(line)
		for _, keyword := range keywords {
			idx := strings.Index(lowerLine, keyword)
			if idx == -1 {
				continue
			}
			start := idx + len(keyword)
			for start < len(line) && strings.ContainsRune(":= '\"", rune(line[start])) {
				start++
			}
			if start < len(line) && !strings.HasPrefix(line[start:], RedactedValue) {
				lines[i] = line[:start] + RedactedValue
				redacted = true
				break
			}
		}
	}
	if !redacted {
		return input
	}
	return strings.Join(lines, "\n")
}
