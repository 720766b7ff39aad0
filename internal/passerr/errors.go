package passerr

import (
	"fmt"
	"strings"
)

// Phase names which pass (or sub-pass) raised the error.
type Phase string

const (
	PhaseTouch      Phase = "touch"
	PhaseInject     Phase = "inject"
	PhaseBoundCheck Phase = "bound_check"
)

// Kind categorizes the violated invariant.
type Kind string

const (
	KindStorageNotFlattened Kind = "storage_not_flattened"
	KindNonZeroLoopMin      Kind = "non_zero_loop_min"
	KindRemappedReference   Kind = "remapped_reference"
	KindDoubleInjection     Kind = "double_injection"
	KindUnbalancedVisit     Kind = "unbalanced_visit"
	KindNestedControlDepth  Kind = "nested_control_depth"
)

// Error is the structured error type raised for a precondition violation.
type Error struct {
	Phase  Phase
	Kind   Kind
	Node   string // a short description of the offending node, for diagnostics
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Phase, e.Kind)
	if e.Node != "" {
		fmt.Fprintf(&b, " at %s", e.Node)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %s)", e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target matches this error by Phase and Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// New builds an *Error.
func New(phase Phase, kind Kind, node, detail string) *Error {
	return &Error{Phase: phase, Kind: kind, Node: node, Detail: detail}
}

// Panic raises a precondition violation as a panic, to be caught by Recover
// at the pass's entry point.
func Panic(phase Phase, kind Kind, node, detail string) {
	panic(New(phase, kind, node, detail))
}

// Recover must be called via defer at a pass driver's entry point. If the
// recovered value is a *Error, it is assigned to *err; any other panic value
// is re-raised, since only the Kinds declared in this package are meant to
// cross this boundary as errors.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		*err = e
		return
	}
	panic(r)
}
