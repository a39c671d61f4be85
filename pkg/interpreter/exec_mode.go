package interpreter

import (
	"fmt"
	"strings"
)

// Mode selects the executor used by an Interpreter.
type Mode string

const (
	ModeTreewalker Mode = "treewalker"
	ModeStack      Mode = "stack"
)

// DefaultMode is the executor used when none is configured.
const DefaultMode = ModeStack

// ParseMode parses an exec-mode name. The empty string is rejected so callers
// can tell "unset" apart from a typo.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return DefaultMode, fmt.Errorf("exec mode expects a value")
	case string(ModeTreewalker):
		return ModeTreewalker, nil
	case string(ModeStack):
		return ModeStack, nil
	default:
		return DefaultMode, fmt.Errorf("unknown exec mode '%s' (expected treewalker or stack)", value)
	}
}
