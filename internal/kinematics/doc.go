// Package kinematics differentiates the conditioned streams: angular
// velocity and acceleration from integrity-checked quaternions, linear
// velocity and acceleration from filtered positions.
//
// Key types: Config, Result, JointKinematics, Extremum.
//
// Every magnitude series carries run-wide extremum provenance (joint,
// frame); acceptable magnitudes differ drastically by joint, so a peak
// without its owner is not interpretable.
package kinematics
