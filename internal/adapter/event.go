// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package adapter

// Event is the global callback name a host runtime invokes.
type Event string

const (
	// EventTic is the primary per-frame callback. It is always registered.
	EventTic Event = "TIC"
	// EventBoot runs once at startup.
	EventBoot Event = "BOOT"
	// EventMenu runs when a game menu item is selected; payload is the index.
	EventMenu Event = "MENU"
	// EventBorder runs per border row; payload is the row.
	EventBorder Event = "BDR"
	// EventScanline runs per screen row; payload is the row.
	EventScanline Event = "SCN"
)

// Events lists every event in registration order.
var Events = []Event{EventTic, EventBoot, EventMenu, EventBorder, EventScanline}

// HasPayload reports whether the event carries an integer argument.
func (e Event) HasPayload() bool {
	return e == EventMenu || e == EventBorder || e == EventScanline
}
