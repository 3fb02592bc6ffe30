package noop

import (
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
)

// Context is an immutable map keyed by gxotel.ContextKey.
type Context struct {
	values map[gxotel.ContextKey]any
}

var rootContext = &Context{}

// RootContext returns the shared empty context.
func RootContext() gxotel.Context { return rootContext }

// GetValue returns the value stored under key, or nil.
func (c *Context) GetValue(key gxotel.ContextKey) any {
	return c.values[key]
}

// SetValue returns a copy of c with key set.
func (c *Context) SetValue(key gxotel.ContextKey, value any) gxotel.Context {
	next := make(map[gxotel.ContextKey]any, len(c.values)+1)
	for k, v := range c.values {
		next[k] = v
	}
	next[key] = value
	return &Context{values: next}
}

// DeleteValue returns a copy of c without key.
func (c *Context) DeleteValue(key gxotel.ContextKey) gxotel.Context {
	if _, ok := c.values[key]; !ok {
		return c
	}
	next := make(map[gxotel.ContextKey]any, len(c.values))
	for k, v := range c.values {
		if k != key {
			next[k] = v
		}
	}
	return &Context{values: next}
}

// Range calls fn for each stored entry until fn returns false. The order is
// unspecified.
func (c *Context) Range(fn func(key gxotel.ContextKey, value any) bool) {
	for k, v := range c.values {
		if !fn(k, v) {
			return
		}
	}
}

var _ gxotel.Context = (*Context)(nil)
