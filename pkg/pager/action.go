package pager

import (
	"fmt"
	"strings"
)

// Action names a navigation transition, as submitted by the UI.
type Action string

const (
	ActionFirst    Action = "first"
	ActionPrevious Action = "previous"
	ActionNext     Action = "next"
	ActionLast     Action = "last"
)

// ParseAction parses a navigation action name, case-insensitively.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionFirst, ActionPrevious, ActionNext, ActionLast:
		return a, nil
	default:
		return "", fmt.Errorf("unknown navigation action %q", s)
	}
}

// Apply runs the transition named by a against a set of rows.
func (s State) Apply(a Action, rows int) State {
	switch a {
	case ActionFirst:
		return s.First()
	case ActionPrevious:
		return s.Previous()
	case ActionNext:
		return s.Next(rows)
	case ActionLast:
		return s.Last(rows)
	default:
		return s.normalized()
	}
}

// Enabled reports whether the control for a would change the state.
func (s State) Enabled(a Action, rows int) bool {
	switch a {
	case ActionFirst, ActionPrevious:
		return s.CanPrevious()
	case ActionNext, ActionLast:
		return s.CanNext(rows)
	default:
		return false
	}
}

// ValidPageSize reports whether n is one of the offered page sizes.
func ValidPageSize(n int, sizes []int) bool {
	for _, size := range sizes {
		if size == n {
			return true
		}
	}
	return false
}
