package model

import "strings"

// Status is a user-defined document status label.
//
// Statuses are an open set: the registry owns the known values and their
// order, and nothing in the core hardcodes a particular status name.
type Status string

// NewStatus trims the given name and returns it as a Status.
// The boolean is false if the trimmed name is empty.
func NewStatus(name string) (Status, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", false
	}
	return Status(trimmed), true
}

// String returns the status label.
func (s Status) String() string {
	return string(s)
}

// IsZero reports whether the status is unset.
func (s Status) IsZero() bool {
	return s == ""
}

// Equal compares two statuses exactly (statuses are case-sensitive:
// "Todo" and "todo" are distinct registry entries).
func (s Status) Equal(other Status) bool {
	return s == other
}
