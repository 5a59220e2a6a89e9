package domain

import "strings"

// Order status vocabulary as used by the upstream services. The upstreams
// use "cancel", "cancelled" and "habis" interchangeably for terminal
// cancellation, so helpers below treat them as synonyms.
const (
	StatusReceive   = "receive"
	StatusMaking    = "making"
	StatusDeliver   = "deliver"
	StatusDone      = "done"
	StatusCancelled = "cancelled"
	StatusCancel    = "cancel"
	StatusHabis     = "habis"
)

// NormalizeStatus lower-cases and trims an upstream status value.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsCancellable reports whether an order in the given status may still be
// cancelled. Matches the upstream rule: receive, making and deliver only.
func IsCancellable(status string) bool {
	switch NormalizeStatus(status) {
	case StatusReceive, StatusMaking, StatusDeliver:
		return true
	}
	return false
}

// IsTerminalCancelled reports whether the status means the order ended in
// cancellation, under any of the upstream spellings.
func IsTerminalCancelled(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusCancel, StatusHabis:
		return true
	}
	return false
}
