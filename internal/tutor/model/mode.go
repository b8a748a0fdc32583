package model

import "strings"

// Mode is a business scenario that replaces the guided curriculum for a learner.
type Mode string

const (
	ModeNegotiation        Mode = "negotiation"
	ModeJobInterview       Mode = "job_interview"
	ModeSales              Mode = "sales"
	ModeClientMeeting      Mode = "client_meeting"
	ModePresentation       Mode = "presentation"
	ModeConflictResolution Mode = "conflict_resolution"
)

// ModeExit is the control value that clears an active business mode.
const ModeExit = "exit"

// AllModes lists the scenarios in display order.
var AllModes = []Mode{
	ModeNegotiation,
	ModeJobInterview,
	ModeSales,
	ModeClientMeeting,
	ModePresentation,
	ModeConflictResolution,
}

func (m Mode) String() string {
	return string(m)
}

// Valid reports whether m belongs to the enumerated scenario set.
func (m Mode) Valid() bool {
	for _, known := range AllModes {
		if m == known {
			return true
		}
	}
	return false
}

// NormalizeMode trims and lowercases a client supplied mode name.
func NormalizeMode(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
