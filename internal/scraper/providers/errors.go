package providers

import "fmt"

// LoginRejectedError distinguishes "the portal refused the credentials"
// from layout drift: the form was found and submitted, but the
// authenticated landmark never appeared.
type LoginRejectedError struct {
	Cause error
}

func (e *LoginRejectedError) Error() string {
	return fmt.Sprintf("login rejected by provider: %v", e.Cause)
}

func (e *LoginRejectedError) Unwrap() error {
	return e.Cause
}
