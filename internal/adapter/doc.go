// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package adapter binds the optional lifecycle handlers of a game module onto
// the fixed global callbacks a fantasy-console runtime invokes.
//
// # Core Concepts
//
//   - Event: the name of a host callback (TIC, BOOT, MENU, BDR, SCN).
//
//   - Handlers: a capability record with one optional function per event,
//     resolved once when the module is bound.
//
//   - Adapter: owns the module's state. Each entry point feeds the current
//     state (and the event payload) to its handler and stores the returned
//     value as the new state.
//
// # Registration policy
//
// TIC is always registered and is a no-op when the module has no tic handler.
// Every other event is registered with the host only if its handler was
// present at bind time; a handler that appears later is never seen.
//
// # Threading
//
// The host drives the adapter from a single cooperative loop. Entry points
// must not be invoked concurrently; the adapter holds no locks.
package adapter
