// Package quat maintains orientation-quaternion integrity for a
// recording: unit-norm enforcement, hemisphere-continuity correction,
// and drift diagnostics.
//
// Key types: Report, DriftStatus.
//
// The hemisphere scan is an inherently sequential left-to-right fold;
// it must run in temporal order.
package quat
