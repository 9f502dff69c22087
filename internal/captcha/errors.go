package captcha

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotReady signals that the solving service has not produced a solution
// yet. It is the only retryable poll outcome; everything else is terminal
// for the attempt.
var ErrNotReady = errors.New("captcha solution not ready")

// SubmissionError is returned when the solving service rejects a challenge
// submission, carrying the service's raw rejection reason.
type SubmissionError struct {
	Reason string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("captcha submission rejected: %s", e.Reason)
}

// SolveError is returned when a poll fails with a terminal, non-retryable
// service status.
type SolveError struct {
	Reason string
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("captcha solving failed: %s", e.Reason)
}

// TimeoutError is returned when the poll attempt budget is exhausted without
// a solution.
type TimeoutError struct {
	Attempts int
	Waited   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("captcha solving timed out after %d attempts (%s)", e.Attempts, e.Waited)
}
