// Package dynamo provides the core primitives shared by the integration and
// fitting layers of tumorfit.
//
// The package defines the fundamental types for fixed-step integration of a
// scalar growth ODE (dV/dt = f(V, t)) and for fitting it to observed data:
//
//   - [RateFunc]: right-hand side of the ODE
//   - [Sample]: one (time, volume) pair
//   - [Trajectory]: discretized output of one integration run
//   - [Observations]: measured (time, volume) pairs a model is fitted to
//   - [Params]: fixed-size coefficient vector passed by value
//
// # Example
//
//	m := growth.New(growth.VonBertalanffy, dynamo.Params{2.0, 1.6})
//	traj, err := integrators.Integrate(m.RateFunc(), 1e-7, 0, 15, 1000, integrators.RK4)
//
// # Thread Safety
//
// All types in this package are plain values. A [Trajectory] or
// [Observations] slice must not be mutated once handed to another component.
package dynamo
