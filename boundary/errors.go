package boundary

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSource indicates the source project has no boundary rule.
	ErrUnknownSource = errors.New("boundary: no rule for source project")

	// ErrInvalidRuleset indicates a ruleset that cannot be used.
	ErrInvalidRuleset = errors.New("boundary: invalid ruleset")
)

// ViolationError reports a dependency a project is not allowed to take.
type ViolationError struct {
	Source     string // the project taking the dependency
	Dependency string // the shared library being depended on
	Reason     string
}

// Error implements the error interface.
func (e *ViolationError) Error() string {
	return fmt.Sprintf("boundary: %s may not depend on %s: %s", e.Source, e.Dependency, e.Reason)
}
