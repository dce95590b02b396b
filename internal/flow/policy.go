package flow

import (
	"strings"
	"time"
)

// ExpiryWindow is how long an idle conversation stays resumable.
// Past it the state is cleared silently before any other processing.
const ExpiryWindow = 24 * time.Hour

// Command is a reserved keyword handled outside normal step dispatch.
type Command string

const (
	CmdRestart Command = "RESTART"
	CmdCancel  Command = "CANCEL"
	CmdHelp    Command = "HELP"
	CmdStatus  Command = "STATUS"
	CmdStart   Command = "START"
	CmdStop    Command = "STOP"
)

// optOutKeywords is the fixed multilingual opt-out set: English plus
// the Ghanaian languages the service runs in (Twi, Ewe, Hausa).
var optOutKeywords = map[string]bool{
	"stop":            true,
	"unsubscribe":     true,
	"opt out":         true,
	"optout":          true,
	"no more":         true,
	"gyae":            true, // Twi
	"megyae":          true, // Twi
	"dzudzɔ":          true, // Ewe
	"daina":           true, // Hausa
	"stop messaging":  true,
	"leave me alone":  true,
}

var commands = map[string]Command{
	"restart": CmdRestart,
	"cancel":  CmdCancel,
	"help":    CmdHelp,
	"status":  CmdStatus,
	"start":   CmdStart,
	"stop":    CmdStop,
}

// Interception is the policy's verdict on an inbound text.
type Interception int

const (
	// InterceptNone passes the message through to step dispatch.
	InterceptNone Interception = iota
	// InterceptOptOut terminates everything and marks the actor out.
	InterceptOptOut
	// InterceptCommand routes to the command table.
	InterceptCommand
)

// Intercept is the single interception policy shared by the guardian
// and educator variants. Opt-out is checked strictly before commands,
// so "stop" always reads as an opt-out, never as the STOP command. The
// ordering is deliberate and covered by tests; do not reorder per
// variant.
func Intercept(text string) (Interception, Command) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimPrefix(normalized, "/")

	if optOutKeywords[normalized] {
		return InterceptOptOut, ""
	}
	if cmd, ok := commands[normalized]; ok {
		return InterceptCommand, cmd
	}
	return InterceptNone, ""
}

// Expired reports whether a state's last activity is outside the
// resumability window.
func Expired(st *State, now time.Time) bool {
	return st != nil && now.Sub(st.UpdatedAt) > ExpiryWindow
}
