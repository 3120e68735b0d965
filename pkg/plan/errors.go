package plan

import "fmt"

// MalformedPlanError means a reply cannot be treated as a plan at all, typically
// because "actions" is missing or is not a list.
type MalformedPlanError struct {
	Reason string
	Err    error
}

func (e *MalformedPlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed plan: %s: %v", e.Reason, e.Err)
	}
	return "malformed plan: " + e.Reason
}

func (e *MalformedPlanError) Unwrap() error {
	return e.Err
}
