// Package burst separates sensor artifacts from legitimate
// high-intensity movement in angular-velocity magnitude series.
//
// Contiguous over-threshold runs are classified into duration tiers
// (artifact / burst / flow); only artifact-tier frames are excluded
// from the clean statistics. Tier boundaries are protocol constants
// and apply uniformly regardless of joint.
// Key types: Event, Tier, CleanStats, Report, Decision.
package burst
