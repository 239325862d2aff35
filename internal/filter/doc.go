// Package filter selects and applies low-pass cutoffs to position
// series using Winter's residual-analysis method.
//
// Responsibilities: 2nd-order Butterworth design, zero-phase
// (forward-backward) application, the residual sweep with knee-point
// detection, biomechanical guardrail floors, and the per-region
// aggregation of cutoffs.
// Key types: Config, Result, Outcome, Mode.
//
// Policy: no silent fixes. Every deviation from the textbook knee-point
// outcome (flat curve, knee beyond range, guardrail override) is
// recorded on the Result that carries it.
package filter
