package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration and fitting.
var (
	// ErrNonFinite indicates the rate function produced NaN or Inf during integration.
	ErrNonFinite = errors.New("dynamo: non-finite value during integration")

	// ErrInvalidSteps indicates a step count below one.
	ErrInvalidSteps = errors.New("dynamo: step count must be at least 1")

	// ErrDegenerateSpan indicates an empty or non-positive observation time span.
	ErrDegenerateSpan = errors.New("dynamo: degenerate time span")

	// ErrDataShape indicates malformed observation data.
	ErrDataShape = errors.New("dynamo: malformed observation data")
)

// IntegrationError wraps an error with the integration step it occurred at.
type IntegrationError struct {
	Step    int
	Time    float64
	Volume  float64
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f, V=%g): %v", e.Step, e.Time, e.Volume, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}
