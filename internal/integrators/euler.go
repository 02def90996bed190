package integrators

import "github.com/san-kum/tumorfit/internal/dynamo"

type eulerStep struct{}

func NewEuler() *eulerStep {
	return &eulerStep{}
}

func (e *eulerStep) Step(rate dynamo.RateFunc, v, t, dt float64) float64 {
	return v + dt*rate(v, t)
}
