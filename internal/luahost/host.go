// Package luahost is a headless fantasy-console runtime built on an embedded
// Lua VM. It provides the primitive drawing and input globals, lets an
// adapter export its entry points as global callbacks, and invokes those
// callbacks by name the way the console's frame loop does.
package luahost

import (
	"fmt"

	"github.com/Shopify/go-lua"
	"github.com/vk/ticbridge/internal/adapter"
)

// Host owns one Lua state. It is not safe for concurrent use.
type Host struct {
	l       *lua.State
	console Console
	// pending carries a Go error raised inside an exported entry point back
	// to Invoke, which would otherwise only see the Lua error string.
	pending error
}

var _ adapter.Host = (*Host)(nil)

// New creates a Host with the standard Lua libraries and the primitive
// globals bound to console.
func New(console Console) *Host {
	l := lua.NewState()
	lua.OpenLibraries(l)
	h := &Host{l: l, console: console}
	h.registerPrimitives()
	return h
}

// Lua exposes the underlying state to bindings that share it.
func (h *Host) Lua() *lua.State {
	return h.l
}

// Console returns the console behind the primitive globals.
func (h *Host) Console() Console {
	return h.console
}

// Export installs entry as the global callback named after event.
func (h *Host) Export(event adapter.Event, entry adapter.EntryPoint) error {
	if entry == nil {
		return fmt.Errorf("nil entry point for %s", event)
	}
	h.l.Register(string(event), func(l *lua.State) int {
		var payload []int
		if event.HasPayload() {
			payload = append(payload, lua.OptInteger(l, 1, 0))
		}
		if err := entry(payload...); err != nil {
			h.pending = err
			lua.Errorf(l, "%s", err.Error())
		}
		return 0
	})
	return nil
}

// Defined reports whether a global callback named event exists.
func (h *Host) Defined(event adapter.Event) bool {
	h.l.Global(string(event))
	defer h.l.Pop(1)
	return h.l.IsFunction(-1)
}

// Invoke calls the global callback named event with payload. It reports false
// without error when no such callback is defined.
func (h *Host) Invoke(event adapter.Event, payload ...int) (bool, error) {
	h.pending = nil
	h.l.Global(string(event))
	if !h.l.IsFunction(-1) {
		h.l.Pop(1)
		return false, nil
	}
	for _, p := range payload {
		h.l.PushInteger(p)
	}
	if err := h.l.ProtectedCall(len(payload), 0, 0); err != nil {
		if h.pending != nil {
			err, h.pending = h.pending, nil
			return true, err
		}
		return true, fmt.Errorf("invoke %s: %w", event, err)
	}
	return true, nil
}

// DoString runs a chunk of Lua in the host's global environment.
func (h *Host) DoString(name, source string) error {
	if err := lua.LoadBuffer(h.l, source, "@"+name, ""); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := h.l.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}
