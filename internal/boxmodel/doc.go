// Package boxmodel integrates a single-box mass balance for atmospheric CH4.
//
// The burden m (Tg) obeys dm/dt = emis - k*m. Over one unit step with
// emissions and loss rate held constant the exact solution is
//
//	m[t+1] = m[t]*exp(-k) + emis/k*(1 - exp(-k))
//
// [Run] applies this update on a yearly grid and converts between ppb and Tg
// with [dynamo.AtmConvert]. When both forcings are scalars the series is
// evaluated directly from m[0] using the step index, which equals the
// recurrence for contiguous years.
//
// Zero loss rates and time-varying forcings shorter than the grid are
// rejected with a *dynamo.DomainError. Negative loss rates, negative
// emissions and gaps in the years are the caller's responsibility.
package boxmodel
