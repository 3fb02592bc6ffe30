package otelprovider

import (
	"fmt"
	"math"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func toOtelKind(kind gxotel.SpanKind) trace.SpanKind {
	switch kind {
	case gxotel.SpanKindServer:
		return trace.SpanKindServer
	case gxotel.SpanKindClient:
		return trace.SpanKindClient
	case gxotel.SpanKindProducer:
		return trace.SpanKindProducer
	case gxotel.SpanKindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}

func toOtelCode(code gxotel.StatusCode) codes.Code {
	switch code {
	case gxotel.StatusOK:
		return codes.Ok
	case gxotel.StatusError:
		return codes.Error
	default:
		return codes.Unset
	}
}

func fromOtelSpanContext(sc trace.SpanContext) gxotel.SpanContext {
	return gxotel.SpanContext{
		TraceID:    sc.TraceID().String(),
		SpanID:     sc.SpanID().String(),
		TraceFlags: byte(sc.TraceFlags()),
		TraceState: sc.TraceState().String(),
		Remote:     sc.IsRemote(),
	}
}

// toOtelSpanContext converts sc; malformed IDs yield the invalid span context.
func toOtelSpanContext(sc gxotel.SpanContext) trace.SpanContext {
	traceID, err := trace.TraceIDFromHex(sc.TraceID)
	if err != nil {
		return trace.SpanContext{}
	}
	spanID, err := trace.SpanIDFromHex(sc.SpanID)
	if err != nil {
		return trace.SpanContext{}
	}
	state, err := trace.ParseTraceState(sc.TraceState)
	if err != nil {
		state = trace.TraceState{}
	}
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.TraceFlags(sc.TraceFlags),
		TraceState: state,
		Remote:     sc.Remote,
	})
}

// toKeyValues converts attrs. Order is unspecified.
func toKeyValues(attrs gxotel.Attributes) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, toKeyValue(k, v))
	}
	return kvs
}

// toKeyValue maps v onto the closest OpenTelemetry attribute type. Values
// with no counterpart are stringified.
func toKeyValue(key string, v any) attribute.KeyValue {
	k := attribute.Key(key)
	switch tv := v.(type) {
	case nil:
		return k.String("")
	case string:
		return k.String(tv)
	case bool:
		return k.Bool(tv)
	case int:
		return k.Int(tv)
	case int8:
		return k.Int64(int64(tv))
	case int16:
		return k.Int64(int64(tv))
	case int32:
		return k.Int64(int64(tv))
	case int64:
		return k.Int64(tv)
	case uint:
		return k.Int64(clampUint(uint64(tv)))
	case uint8:
		return k.Int64(int64(tv))
	case uint16:
		return k.Int64(int64(tv))
	case uint32:
		return k.Int64(int64(tv))
	case uint64:
		return k.Int64(clampUint(tv))
	case float32:
		return k.Float64(float64(tv))
	case float64:
		return k.Float64(tv)
	case []string:
		return k.StringSlice(tv)
	case []bool:
		return k.BoolSlice(tv)
	case []int:
		return k.IntSlice(tv)
	case []int64:
		return k.Int64Slice(tv)
	case []float64:
		return k.Float64Slice(tv)
	case []any:
		return sliceKeyValue(k, tv)
	case error:
		return k.String(tv.Error())
	case fmt.Stringer:
		return k.String(tv.String())
	default:
		return k.String(fmt.Sprint(tv))
	}
}

// sliceKeyValue converts a generic slice (as produced by YAML decoding).
// Homogeneous slices keep their type; mixed ones become string slices.
func sliceKeyValue(k attribute.Key, items []any) attribute.KeyValue {
	var (
		strs   = make([]string, 0, len(items))
		ints   = make([]int64, 0, len(items))
		floats = make([]float64, 0, len(items))
		bools  = make([]bool, 0, len(items))
	)
	for _, item := range items {
		switch iv := item.(type) {
		case string:
			strs = append(strs, iv)
		case int:
			ints = append(ints, int64(iv))
			floats = append(floats, float64(iv))
		case int64:
			ints = append(ints, iv)
			floats = append(floats, float64(iv))
		case float64:
			floats = append(floats, iv)
		case bool:
			bools = append(bools, iv)
		}
	}
	switch n := len(items); {
	case n == 0:
		return k.StringSlice(nil)
	case len(strs) == n:
		return k.StringSlice(strs)
	case len(ints) == n:
		return k.Int64Slice(ints)
	case len(floats) == n:
		return k.Float64Slice(floats)
	case len(bools) == n:
		return k.BoolSlice(bools)
	}
	mixed := make([]string, len(items))
	for i, item := range items {
		mixed[i] = fmt.Sprint(item)
	}
	return k.StringSlice(mixed)
}

func clampUint(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
