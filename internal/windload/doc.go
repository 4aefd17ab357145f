// Package windload decodes wind-loading simulation records.
//
// A record is a pickle written by the simulation pipeline. Each named
// channel carries a "data" list of (time, values) samples, where values is
// the rigid-body-motion vector of one time step. Two layouts are accepted:
// a dict keyed by channel name, and a list of (name, channel) pairs, which
// is what Python's dict() turns into the same mapping.
package windload
