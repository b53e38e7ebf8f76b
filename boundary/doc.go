// Package boundary holds the declarative dependency policy for a monorepo:
// which project may depend on which shared library.
//
// The package is data plus lookup only. Enforcement (a lint rule, a CI
// step) consumes the same ruleset; its mechanics live outside this module.
//
// # Usage
//
//	rs := boundary.New(map[string]boundary.Rule{
//	    "payment-service": {Allowed: []string{"resilience", "observe"}},
//	    "auth-service":    {Allowed: []string{"*"}, Denied: []string{"pdf-lib"}},
//	})
//
//	if err := rs.Check("payment-service", "pdf-lib"); err != nil {
//	    // dependency not allowed
//	}
//
// Rulesets can also be loaded from a YAML or JSON file:
//
//	rs, err := boundary.Load("boundaries.yaml")
//
// A deny entry always wins over an allow entry, and "*" in the allow list
// permits any dependency not explicitly denied. Projects without a rule are
// denied everything: boundaries are opt-in per project, not opt-out.
package boundary
