// Package mocap owns the core data model for motion-capture recordings.
//
// Responsibilities: per-joint position/orientation series, the run
// container with its uniform-timeline precondition, and the anatomical
// region enumeration used for per-region filter selection.
// Key types: Run, JointSeries, Region, RegionMap.
//
// Dependency rule: mocap depends on nothing inside this repository.
// No SQL/database code is allowed in this package.
package mocap
