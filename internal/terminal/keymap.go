package terminal

import "strings"

// ShortcutFor maps global keyboard shortcuts to the event they trigger:
// Ctrl+P pays, Ctrl+L clears.
func ShortcutFor(ev Event) (Event, bool) {
	if !ev.Ctrl {
		return Event{}, false
	}
	switch strings.ToLower(ev.Key) {
	case "p":
		return Event{Type: EventPay}, true
	case "l":
		return Event{Type: EventClear, Confirmed: ev.Confirmed}, true
	}
	return Event{}, false
}
