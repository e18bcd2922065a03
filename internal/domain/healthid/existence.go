package healthid

import (
	"context"
	"fmt"
	"time"
)

// ExistenceResult is the outcome of asking the directory about a candidate.
type ExistenceResult int

const (
	ResultNotFound ExistenceResult = iota
	ResultExists
	ResultTimeout
	ResultError
)

func (r ExistenceResult) String() string {
	switch r {
	case ResultNotFound:
		return "not_found"
	case ResultExists:
		return "exists"
	case ResultTimeout:
		return "timeout"
	case ResultError:
		return "error"
	default:
		return fmt.Sprintf("ExistenceResult(%d)", int(r))
	}
}

// Existence is the result of one CheckExists call. Cause is set only for
// ResultError and is informational; it is never returned as an error.
type Existence struct {
	Result  ExistenceResult
	Cause   error
	Elapsed time.Duration
}

type lookupOutcome struct {
	found bool
	err   error
}

// CheckExists races dir.Exists against a timer. Whichever settles first
// decides the result; a lookup that loses keeps running and its answer is
// dropped. Lookup errors and panics map to ResultError. A nil directory
// answers ResultNotFound without any call.
func CheckExists(ctx context.Context, dir Directory, healthID string, timeout time.Duration) Existence {
	if dir == nil {
		return Existence{Result: ResultNotFound}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	// Buffered so the losing goroutine can always finish its send.
	done := make(chan lookupOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- lookupOutcome{err: fmt.Errorf("directory panic: %v", r)}
			}
		}()
		found, err := dir.Exists(ctx, healthID)
		done <- lookupOutcome{found: found, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		elapsed := time.Since(start)
		switch {
		case out.err != nil:
			return Existence{Result: ResultError, Cause: out.err, Elapsed: elapsed}
		case out.found:
			return Existence{Result: ResultExists, Elapsed: elapsed}
		default:
			return Existence{Result: ResultNotFound, Elapsed: elapsed}
		}
	case <-timer.C:
		return Existence{Result: ResultTimeout, Elapsed: time.Since(start)}
	}
}
