package browser

import "fmt"

// AutomationError is the failure type for every browser operation. Step
// records which logical interaction failed so job error messages can point
// at the exact place the portal stopped matching expectations.
type AutomationError struct {
	Step  string
	Cause error
}

func (e *AutomationError) Error() string {
	return fmt.Sprintf("automation step %q failed: %v", e.Step, e.Cause)
}

func (e *AutomationError) Unwrap() error {
	return e.Cause
}
