package ingest

import (
	"errors"
	"fmt"
)

// ErrRunInFlight means a run for the same query config is still executing.
// The caller skips rather than queues; the scheduler does no bookkeeping
// for a skipped fire.
var ErrRunInFlight = errors.New("run already in flight for this query config")

// RunAbortedError means the search-provider call failed, so the whole run
// aborted with no partial article creation. Item-level failures never turn
// into this; it carries the distinct abort reason for the run summary.
type RunAbortedError struct {
	Reason string
	Err    error
}

func (e *RunAbortedError) Error() string {
	return fmt.Sprintf("run aborted: %s: %v", e.Reason, e.Err)
}

func (e *RunAbortedError) Unwrap() error { return e.Err }
