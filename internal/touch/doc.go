// Package touch implements the touch-propagation analysis the virtual-thread
// rewriter runs before mutating a tree: given a statement and a distinguished
// variable, compute the set of every variable whose value could be
// influenced by it through assignment, loop induction, or indirect write
// through tvm_access_ptr with the write bit set.
package touch
