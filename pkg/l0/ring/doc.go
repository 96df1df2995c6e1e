// Package ring provides the fixed-capacity byte ring used by every
// transport for frame assembly and payload construction.
package ring

// A Buffer never grows and never allocates on its mutating paths. All
// reads address bytes logically, (head+i) mod Capacity, so callers never
// see where the physical wrap happens.
//
// Writes are kept contiguous: when an append would run past the end of
// storage, the content is realigned to physical index 0 first.
//
// A Buffer is a plain value and has no internal locking; it belongs to
// exactly one task at a time (see comm.Queue for the task hand-off).
