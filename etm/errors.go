// SPDX-License-Identifier: EUPL-1.2

package etm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUnauthorized       = errors.New("engine: token missing or invalid")
	ErrForbidden          = errors.New("engine: access forbidden")
	ErrNotFound           = errors.New("engine: resource not found")
	ErrUnprocessable      = errors.New("engine: request rejected")
	ErrEngineUnavailable  = errors.New("engine: host unreachable or transport failure")
	ErrEngineError        = errors.New("engine: internal error (5xx)")
	ErrBadResponse        = errors.New("engine: invalid response format or malformed data")
	ErrTimeout            = errors.New("engine: request timed out")
	ErrMeritOrderDisabled = errors.New("engine: merit order disabled for scenario")
)

// EngineError wraps the sentinel errors with request context.
type EngineError struct {
	Sentinel  error
	Operation string
	Status    int
	// Errors holds the messages of a 422 response body.
	Errors []string
	Body   string
	Err    error
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("etm: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if len(e.Errors) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, formatEngineErrors(e.Errors))
	} else if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Sentinel
}

// formatEngineErrors renders a 422 errors list in the shape users know from
// the model's own tooling.
func formatEngineErrors(errs []string) string {
	return "ETEngine returned the following error(s):\n > " + strings.Join(errs, "\n > ")
}
