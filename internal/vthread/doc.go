// Package vthread lowers a parallel "virtual thread" annotation into either
// an unrolled block sequence or a serial loop, hoisting per-thread storage
// by adding an outer dimension to affected allocations and rewriting the
// buffer accesses that alias them.
package vthread
