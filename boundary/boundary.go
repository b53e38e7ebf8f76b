package boundary

import (
	"fmt"
	"sort"
	"strings"
)

// Wildcard in an allow list permits any dependency not explicitly denied.
const Wildcard = "*"

// Rule describes the shared libraries one project may depend on.
type Rule struct {
	// Allowed lists permitted dependency names. The Wildcard entry permits
	// everything not in Denied.
	Allowed []string `mapstructure:"allowed" json:"allowed" yaml:"allowed"`

	// Denied lists forbidden dependency names. Deny wins over allow.
	Denied []string `mapstructure:"denied" json:"denied" yaml:"denied"`
}

// Ruleset is an immutable source-project-to-rule table.
type Ruleset struct {
	rules map[string]Rule
}

// New creates a ruleset from the given table. Names are trimmed; entries
// with empty names are dropped.
func New(rules map[string]Rule) *Ruleset {
	normalized := make(map[string]Rule, len(rules))
	for name, rule := range rules {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		normalized[name] = rule
	}
	return &Ruleset{rules: normalized}
}

// Sources returns the projects with a boundary rule, sorted.
func (rs *Ruleset) Sources() []string {
	names := make([]string, 0, len(rs.rules))
	for name := range rs.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rule returns the rule for a source project, if any.
func (rs *Ruleset) Rule(source string) (Rule, bool) {
	r, ok := rs.rules[source]
	return r, ok
}

// Allowed reports whether source may depend on dep.
func (rs *Ruleset) Allowed(source, dep string) bool {
	return rs.Check(source, dep) == nil
}

// Check returns nil when source may depend on dep, ErrUnknownSource when
// source has no rule, and a *ViolationError otherwise.
func (rs *Ruleset) Check(source, dep string) error {
	rule, ok := rs.rules[source]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	for _, d := range rule.Denied {
		if d == dep {
			return &ViolationError{
				Source:     source,
				Dependency: dep,
				Reason:     "explicitly denied",
			}
		}
	}

	for _, a := range rule.Allowed {
		if a == dep || a == Wildcard {
			return nil
		}
	}

	return &ViolationError{
		Source:     source,
		Dependency: dep,
		Reason:     "not in allow list",
	}
}
