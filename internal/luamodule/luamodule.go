// Package luamodule binds a game module written in Lua to the callback
// adapter.
//
// A module is a chunk that returns a table:
//
//	local tic80 = require("tic80")
//	return {
//	  initial_state = { x = 0 },
//	  tic = function(s) tic80.cls(0) return { x = s.x + 1 } end,
//	  bdr = function(row, s) return s end,
//	}
//
// initial_state is required. tic, boot, menu, bdr and scn are optional and
// probed once, at load time. The "tic80" module re-exports the host's
// primitive globals unchanged.
package luamodule

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Shopify/go-lua"
	"github.com/vk/ticbridge/internal/adapter"
	"github.com/vk/ticbridge/internal/luahost"
)

// FFIModule is the name game modules require to reach host primitives.
const FFIModule = "tic80"

// exportNames maps module fields to the events they handle.
var exportNames = map[adapter.Event]string{
	adapter.EventTic:      "tic",
	adapter.EventBoot:     "boot",
	adapter.EventMenu:     "menu",
	adapter.EventBorder:   "bdr",
	adapter.EventScanline: "scn",
}

// Value is an opaque handle to a state value living in the Lua VM. A Value is
// released once a handler has replaced it.
type Value struct {
	key string
}

// Binding is a loaded module.
type Binding struct {
	l       *lua.State
	name    string
	prefix  string
	seq     int
	initial Value
	exports []adapter.Event
}

// LoadFile reads and loads a module from disk.
func LoadFile(h *luahost.Host, path string) (*Binding, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}
	return Load(h, filepath.Base(path), string(src))
}

// Load runs source in h's VM and resolves the returned table's exports.
func Load(h *luahost.Host, name, source string) (*Binding, error) {
	l := h.Lua()
	preloadFFI(l)

	if err := lua.LoadBuffer(l, source, "@"+name, ""); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if err := l.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	defer l.Pop(1)

	if l.TypeOf(-1) != lua.TypeTable {
		return nil, fmt.Errorf("module %s must return a table, got %s", name, lua.TypeNameOf(l, -1))
	}

	b := &Binding{l: l, name: name, prefix: "ticbridge." + name + "."}

	l.Field(-1, "initial_state")
	if l.IsNil(-1) {
		l.Pop(1)
		return nil, fmt.Errorf("module %s does not export initial_state", name)
	}
	b.initial = b.store()

	for _, event := range adapter.Events {
		l.Field(-1, exportNames[event])
		if !l.IsFunction(-1) {
			l.Pop(1)
			continue
		}
		l.SetField(lua.RegistryIndex, b.fnKey(event))
		b.exports = append(b.exports, event)
	}
	return b, nil
}

// Exports lists the events the module handles.
func (b *Binding) Exports() []adapter.Event {
	return b.exports
}

// Module returns the adapter view of the binding. Bind it to one adapter
// only: the adapter releases state values as it replaces them.
func (b *Binding) Module() adapter.Module[Value] {
	m := adapter.Module[Value]{Initial: b.initial}
	for _, event := range b.exports {
		key := b.fnKey(event)
		switch event {
		case adapter.EventTic:
			m.Handlers.Tic = func(s Value) (Value, error) { return b.call(key, s) }
		case adapter.EventBoot:
			m.Handlers.Boot = func(s Value) (Value, error) { return b.call(key, s) }
		case adapter.EventMenu:
			m.Handlers.Menu = func(i int, s Value) (Value, error) { return b.call(key, s, i) }
		case adapter.EventBorder:
			m.Handlers.Border = func(row int, s Value) (Value, error) { return b.call(key, s, row) }
		case adapter.EventScanline:
			m.Handlers.Scanline = func(row int, s Value) (Value, error) { return b.call(key, s, row) }
		}
	}
	return m
}

func (b *Binding) fnKey(event adapter.Event) string {
	return b.prefix + "fn." + exportNames[event]
}

// store pops the top of the stack into a fresh registry slot.
func (b *Binding) store() Value {
	b.seq++
	v := Value{key: b.prefix + "state." + strconv.Itoa(b.seq)}
	b.l.SetField(lua.RegistryIndex, v.key)
	return v
}

func (b *Binding) release(v Value) {
	b.l.PushNil()
	b.l.SetField(lua.RegistryIndex, v.key)
}

// call invokes fn(payload..., state) and stores the result as a new Value.
func (b *Binding) call(fnKey string, state Value, payload ...int) (Value, error) {
	l := b.l
	l.Field(lua.RegistryIndex, fnKey)
	for _, p := range payload {
		l.PushInteger(p)
	}
	l.Field(lua.RegistryIndex, state.key)
	if err := l.ProtectedCall(len(payload)+1, 1, 0); err != nil {
		return state, fmt.Errorf("%s: %w", b.name, err)
	}
	next := b.store()
	b.release(state)
	return next, nil
}

// preloadFFI makes require("tic80") return a table of the host primitives
// as they are defined right now.
func preloadFFI(l *lua.State) {
	lua.Require(l, FFIModule, func(l *lua.State) int {
		l.NewTable()
		for _, name := range luahost.Primitives {
			l.Global(name)
			l.SetField(-2, name)
		}
		return 1
	}, false)
	l.Pop(1)
}
