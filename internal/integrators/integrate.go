// Package integrators implements fixed-step explicit schemes for scalar
// growth ODEs.
package integrators

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/tumorfit/internal/dynamo"
)

// ErrUnknownScheme is returned by ParseScheme for unrecognised names.
var ErrUnknownScheme = errors.New("integrators: unknown scheme")

// Stepper advances a volume by one fixed step.
type Stepper interface {
	Step(rate dynamo.RateFunc, v, t, dt float64) float64
}

type Scheme int

const (
	Euler Scheme = iota
	Heun
	RK4
)

func (s Scheme) String() string {
	switch s {
	case Euler:
		return "euler"
	case Heun:
		return "heun"
	case RK4:
		return "runge-kutta"
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

// Stepper returns the single-step implementation for the scheme.
func (s Scheme) Stepper() Stepper {
	switch s {
	case Heun:
		return NewHeun()
	case RK4:
		return NewRK4()
	default:
		return NewEuler()
	}
}

// ParseScheme accepts euler, heun, runge-kutta and rk4, ignoring case.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "euler":
		return Euler, nil
	case "heun":
		return Heun, nil
	case "runge-kutta", "rk4", "runge_kutta", "rungekutta":
		return RK4, nil
	}
	return Euler, fmt.Errorf("%w: %q (want euler, heun or runge-kutta)", ErrUnknownScheme, name)
}

func (s Scheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Scheme) UnmarshalText(b []byte) error {
	v, err := ParseScheme(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Integrate runs n fixed steps of size total/n from (t0, v0). The returned
// trajectory has n+1 samples with times t0 + i*dt.
//
// A non-finite volume aborts the run with an *dynamo.IntegrationError
// wrapping dynamo.ErrNonFinite.
func Integrate(rate dynamo.RateFunc, v0, t0, total float64, n int, scheme Scheme) (dynamo.Trajectory, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", dynamo.ErrInvalidSteps, n)
	}
	if !finite(v0) || !finite(t0) || !finite(total) {
		return nil, &dynamo.IntegrationError{Step: 0, Time: t0, Volume: v0, Wrapped: dynamo.ErrNonFinite}
	}

	stepper := scheme.Stepper()
	dt := total / float64(n)

	traj := make(dynamo.Trajectory, 0, n+1)
	traj = append(traj, dynamo.Sample{Time: t0, Volume: v0})

	v := v0
	for i := 0; i < n; i++ {
		t := t0 + float64(i)*dt
		v = stepper.Step(rate, v, t, dt)
		if !finite(v) {
			return nil, &dynamo.IntegrationError{Step: i + 1, Time: t + dt, Volume: v, Wrapped: dynamo.ErrNonFinite}
		}
		traj = append(traj, dynamo.Sample{Time: t0 + float64(i+1)*dt, Volume: v})
	}

	return traj, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
