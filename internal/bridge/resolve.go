package bridge

import (
	"fmt"
	"strings"
)

// Target is the resolved set of destinations for a selector.
type Target struct {
	IDs         []ID
	Description string
}

// UnknownSelectorError is returned by Resolve for selectors that are neither
// "all" nor a configured tag.
type UnknownSelectorError struct {
	Selector string
	Valid    []string
}

func (e *UnknownSelectorError) Error() string {
	return fmt.Sprintf("unknown selector %q (valid: %s)", e.Selector, strings.Join(e.Valid, ", "))
}

func Resolve(selector string, reg *Registry) (Target, error) {
	sel := strings.ToLower(selector)
	if sel == SelectorAll {
		return Target{IDs: reg.IDs(), Description: "all friends"}, nil
	}
	if id, ok := reg.Lookup(sel); ok {
		return Target{IDs: []ID{id}, Description: sel}, nil
	}
	return Target{}, &UnknownSelectorError{Selector: selector, Valid: reg.Selectors()}
}
