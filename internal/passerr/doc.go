// Package passerr provides the structured error type the two passes in this
// module use to report precondition violations.
//
// Errors are categorized by Phase (which pass/sub-pass was running) and Kind
// (what invariant broke). Use Panic to raise a precondition violation from
// deep inside a recursive visitor, and Recover at the pass's entry point to
// turn it back into a returned *Error — this keeps the visitor methods
// themselves free of error-return plumbing while staying idiomatic at the
// package's public API boundary.
package passerr
