package integrators

import "github.com/san-kum/tumorfit/internal/dynamo"

type rk4Step struct{}

func NewRK4() *rk4Step {
	return &rk4Step{}
}

func (r *rk4Step) Step(rate dynamo.RateFunc, v, t, dt float64) float64 {
	half := dt * 0.5

	k1 := rate(v, t)
	k2 := rate(v+half*k1, t+half)
	k3 := rate(v+half*k2, t+half)
	k4 := rate(v+dt*k3, t+dt)

	return v + dt/6.0*(k1+2*k2+2*k3+k4)
}
