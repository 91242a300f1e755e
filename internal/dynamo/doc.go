// Package dynamo provides the core types shared by the CH4 box model.
//
// The package defines the data model of a zero-dimensional mass-balance
// simulation:
//
//   - [Years]: consecutive calendar years forming the time grid
//   - [Concentration]: CH4 mole fraction in ppb, aligned with [Years]
//   - [Forcing]: emissions or loss rate, either [Scalar] or [TimeVarying]
//   - [Params]: initial mole fraction plus both forcings
//   - [System] and [Integrator]: generic ODE stepping used for numerical
//     comparison against the exact update
//
// # Example
//
//	years := dynamo.YearRange(2005, 2022)
//	emis := dynamo.Scalar(550)
//	k := dynamo.Scalar(1.0 / 9.1)
//	conc, err := boxmodel.Run(years, 1776, emis, k)
//
// # Thread Safety
//
// All types are immutable once constructed. A [Forcing] copies the values it
// is built from, so sharing one between goroutines needs no coordination.
package dynamo
