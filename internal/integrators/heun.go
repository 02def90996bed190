package integrators

import "github.com/san-kum/tumorfit/internal/dynamo"

// heunStep is the improved Euler method: an Euler predictor followed by a
// trapezoidal corrector.
type heunStep struct{}

func NewHeun() *heunStep {
	return &heunStep{}
}

func (h *heunStep) Step(rate dynamo.RateFunc, v, t, dt float64) float64 {
	k1 := rate(v, t)
	predicted := v + dt*k1
	k2 := rate(predicted, t+dt)
	return v + dt*0.5*(k1+k2)
}
