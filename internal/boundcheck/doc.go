// Package boundcheck instruments every buffer Store whose target carries a
// known shape with a guarding range check: the write only happens if the
// index stays within [0, shape); otherwise the program aborts with an
// assertion instead of writing out of bounds.
package boundcheck
