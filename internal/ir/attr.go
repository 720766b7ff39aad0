package ir

// Recognized AttrStmt keys.
const (
	// AttrVirtualThread marks a scope whose Node is an *IterVar and whose
	// Value is the thread count literal.
	AttrVirtualThread = "virtual_thread"
	// AttrCoprocUopScope and AttrCoprocScope force early loop injection
	// when the enclosing virtual thread is not shareable.
	AttrCoprocUopScope = "coproc_uop_scope"
	AttrCoprocScope    = "coproc_scope"
	// AttrBufferBound announces the logical extent of the buffer named by
	// Node (a *Variable).
	AttrBufferBound = "buffer_bound"
)

// ThreadTagShared is the thread_tag value that permits sharing a buffer
// across virtual-thread instances instead of privatizing it.
const ThreadTagShared = "vthread"
