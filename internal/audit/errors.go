// Package audit inspects the landing pages behind page insights and reports markup problems
// that weaken the campaigns built on them.
package audit

import "fmt"

// AuditError represents a failure that prevents the audit from running at all.
// Per-page fetch failures are reported on the PageReport instead.
//
//nolint:revive // audit.AuditError reads better than audit.Error at call sites
type AuditError struct {
	Message string
	Cause   error
}

func (e *AuditError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("audit error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("audit error: %s", e.Message)
}

func (e *AuditError) Unwrap() error {
	return e.Cause
}
