// Package ssa provides a narrow pre-order rewrite that gives every variable
// bound more than once in a tree (by LetStmt, For, or Allocate) a fresh
// identity per binding site, substituting the fresh variable through that
// binding's scope.
//
// This matters because the virtual-thread injector's unrolling step
// substitutes the thread variable with each of 0..num_threads-1 and chains
// the results with Block — but any LetStmt/For/Allocate binder inside the
// unrolled statement is duplicated verbatim num_threads times, all sharing
// the same *ir.Variable identity. Left alone that's harmless (our nodes
// compare by pointer, not name) but it does mean distinct dynamic instances
// of the same loop/let share one variable identity, which is exactly what
// InjectVirtualThread hands off ConvertSSA to clean up. The fresh variables
// keep the original name.
package ssa
