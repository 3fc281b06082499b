// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package adapter

import (
	"fmt"
)

// Handlers is the capability record of a module. A nil field means the module
// does not handle that event.
type Handlers[S any] struct {
	Tic      func(state S) (S, error)
	Boot     func(state S) (S, error)
	Menu     func(index int, state S) (S, error)
	Border   func(row int, state S) (S, error)
	Scanline func(row int, state S) (S, error)
}

// Has reports whether a handler for e is present.
func (h Handlers[S]) Has(e Event) bool {
	switch e {
	case EventTic:
		return h.Tic != nil
	case EventBoot:
		return h.Boot != nil
	case EventMenu:
		return h.Menu != nil
	case EventBorder:
		return h.Border != nil
	case EventScanline:
		return h.Scanline != nil
	}
	return false
}

// Module is what a game exports: its initial state and its handlers.
type Module[S any] struct {
	Initial  S
	Handlers Handlers[S]
}

// EntryPoint is the function a host invokes for one event.
type EntryPoint func(payload ...int) error

// Host is the runtime side of the boundary: it makes entry points callable
// under their global names.
type Host interface {
	Export(event Event, entry EntryPoint) error
}

// HandlerError wraps a failure returned by a module handler.
type HandlerError struct {
	Event Event
	Err   error
}

// Error implements the error interface for HandlerError.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler: %v", e.Event, e.Err)
}

// Unwrap returns the handler's own error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Adapter threads a single state value through a module's handlers.
type Adapter[S any] struct {
	handlers Handlers[S]
	state    S
	// frames counts TIC invocations, including no-op ones.
	frames uint64
}

// Bind resolves the module's handlers and takes its initial state.
func Bind[S any](m Module[S]) *Adapter[S] {
	return &Adapter[S]{
		handlers: m.Handlers,
		state:    m.Initial,
	}
}

// State returns the current state.
func (a *Adapter[S]) State() S {
	return a.state
}

// Frames returns how many times Tic has been invoked.
func (a *Adapter[S]) Frames() uint64 {
	return a.frames
}

// Registered lists the events this adapter exports, in registration order.
func (a *Adapter[S]) Registered() []Event {
	events := []Event{EventTic}
	for _, e := range Events[1:] {
		if a.handlers.Has(e) {
			events = append(events, e)
		}
	}
	return events
}

// Register exports every registered event to the host.
func (a *Adapter[S]) Register(h Host) error {
	for _, e := range a.Registered() {
		event := e
		entry := func(payload ...int) error {
			return a.Dispatch(event, payload...)
		}
		if err := h.Export(event, entry); err != nil {
			return fmt.Errorf("export %s: %w", event, err)
		}
	}
	return nil
}

// Dispatch routes an event to its entry point. Payload events take their
// argument from payload[0] and default to 0.
func (a *Adapter[S]) Dispatch(e Event, payload ...int) error {
	arg := 0
	if len(payload) > 0 {
		arg = payload[0]
	}
	switch e {
	case EventTic:
		return a.Tic()
	case EventBoot:
		return a.Boot()
	case EventMenu:
		return a.Menu(arg)
	case EventBorder:
		return a.Border(arg)
	case EventScanline:
		return a.Scanline(arg)
	}
	return fmt.Errorf("unknown event %q", e)
}

// Tic runs the per-frame handler.
func (a *Adapter[S]) Tic() error {
	a.frames++
	return a.apply(EventTic, a.handlers.Tic)
}

// Boot runs the startup handler.
func (a *Adapter[S]) Boot() error {
	return a.apply(EventBoot, a.handlers.Boot)
}

// Menu runs the menu handler with the selected index.
func (a *Adapter[S]) Menu(index int) error {
	return a.applyWith(EventMenu, a.handlers.Menu, index)
}

// Border runs the border handler for row.
func (a *Adapter[S]) Border(row int) error {
	return a.applyWith(EventBorder, a.handlers.Border, row)
}

// Scanline runs the scanline handler for row.
func (a *Adapter[S]) Scanline(row int) error {
	return a.applyWith(EventScanline, a.handlers.Scanline, row)
}

func (a *Adapter[S]) apply(e Event, fn func(S) (S, error)) error {
	if fn == nil {
		return nil
	}
	next, err := fn(a.state)
	if err != nil {
		return &HandlerError{Event: e, Err: err}
	}
	a.state = next
	return nil
}

func (a *Adapter[S]) applyWith(e Event, fn func(int, S) (S, error), arg int) error {
	if fn == nil {
		return nil
	}
	next, err := fn(arg, a.state)
	if err != nil {
		return &HandlerError{Event: e, Err: err}
	}
	a.state = next
	return nil
}
