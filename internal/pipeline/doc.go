// Package pipeline runs the four conditioning stages over one
// recording in strict dependency order: quaternion integrity, adaptive
// filtering, kinematic differentiation, burst classification.
//
// Every stage is a pure, synchronous transform of its inputs; a Run's
// arrays are owned exclusively by the invocation that processes them.
// Multiple runs are independent and may be processed concurrently by
// the batch layer.
package pipeline
