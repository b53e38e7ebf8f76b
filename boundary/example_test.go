package boundary_test

import (
	"fmt"

	"github.com/jonwraymond/callguard/boundary"
)

func ExampleRuleset_Check() {
	rs := boundary.New(map[string]boundary.Rule{
		"payment-service": {
			Allowed: []string{"resilience", "observe"},
		},
		"report-service": {
			Allowed: []string{boundary.Wildcard},
			Denied:  []string{"payments-internal"},
		},
	})

	fmt.Println(rs.Check("payment-service", "resilience"))
	fmt.Println(rs.Check("payment-service", "pdf-lib"))
	fmt.Println(rs.Check("report-service", "payments-internal"))
	// Output:
	// <nil>
	// boundary: payment-service may not depend on pdf-lib: not in allow list
	// boundary: report-service may not depend on payments-internal: explicitly denied
}

func ExampleRuleset_Allowed() {
	rs := boundary.New(map[string]boundary.Rule{
		"auth-service": {Allowed: []string{"observe"}},
	})

	fmt.Println(rs.Allowed("auth-service", "observe"))
	fmt.Println(rs.Allowed("auth-service", "cache"))
	// Output:
	// true
	// false
}
