package luamodule

import (
	"fmt"
	"math"

	"github.com/Shopify/go-lua"
)

// maxDepth bounds table nesting.
const maxDepth = 16

// decoder remembers tables it has visited. A table reached again while it
// is still being decoded is a cycle; one reached again later is shared and
// reuses the first result.
type decoder struct {
	l      *lua.State
	active map[any]bool
	done   map[any]map[string]any
}

// Decode converts v into plain Go values for logging and tests: integral
// numbers become int, tables become map[string]any keyed by the formatted
// Lua key, functions and userdata become their type name.
func (b *Binding) Decode(v Value) any {
	b.l.Field(lua.RegistryIndex, v.key)
	defer b.l.Pop(1)
	d := &decoder{l: b.l, active: make(map[any]bool), done: make(map[any]map[string]any)}
	return d.decode(b.l.AbsIndex(-1), 0)
}

func (d *decoder) decode(index, depth int) any {
	l := d.l
	switch l.TypeOf(index) {
	case lua.TypeNil, lua.TypeNone:
		return nil
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int(n)
		}
		return n
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s
	case lua.TypeTable:
		id := l.ToValue(index)
		if d.active[id] {
			return "<cycle>"
		}
		if out, ok := d.done[id]; ok {
			return out
		}
		if depth >= maxDepth {
			return "<table>"
		}
		if !l.CheckStack(2) {
			return "<table>"
		}
		d.active[id] = true
		out := make(map[string]any)
		l.PushNil()
		for l.Next(index) {
			out[keyString(l, -2)] = d.decode(l.AbsIndex(-1), depth+1)
			l.Pop(1)
		}
		delete(d.active, id)
		d.done[id] = out
		return out
	}
	return lua.TypeNameOf(l, index)
}

// keyString formats a table key without converting it in place, which
// would confuse Next.
func keyString(l *lua.State, index int) string {
	switch l.TypeOf(index) {
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		if n == math.Trunc(n) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	case lua.TypeBoolean:
		return fmt.Sprintf("%t", l.ToBoolean(index))
	}
	return lua.TypeNameOf(l, index)
}
