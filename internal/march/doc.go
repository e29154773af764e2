// Package march drives a fixed-step time-marching simulation with periodic
// checkpointing.
//
// The numerical work is delegated to a [Backend]; the driver only owns the
// clock, the step count and the checkpoint cadence:
//
//   - [Config]: final time, step size and checkpoint cadence
//   - [Backend]: assembly, linear solve and mapping back to a [Solution]
//   - [Checkpointer]: persists a [Solution] at a given step
//   - [Driver]: runs the loop, one [Driver.Step] per time step
//
// # Example
//
//	d := march.New(backend, writer, march.Config{FinalTime: 18000, Tau: 300, OutputFrequency: 20})
//	result, err := d.Run(ctx)
//
// The first step requests a full assembly (matrix and right-hand side); every
// later step requests the right-hand side only and reuses the matrix. Backends
// must therefore have a time-invariant operator.
//
// # Thread Safety
//
// A Driver is NOT thread-safe and owns its backend for the duration of a run.
package march
