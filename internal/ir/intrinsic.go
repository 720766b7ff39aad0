package ir

// Recognized intrinsics.
const (
	// IntrinsicAccessPtr builds a typed pointer into a buffer:
	// tvm_access_ptr(dtype, buffer_var, offset, extent, rw_mask).
	IntrinsicAccessPtr = "tvm_access_ptr"
	// IntrinsicContextID is an opaque per-thread context handle, replaced
	// by the thread index under non-shareable injection.
	IntrinsicContextID = "tvm_context_id"
	// IntrinsicIfThenElse is a select-like conditional; its presence
	// inside a store's value makes that store unsafe to instrument.
	IntrinsicIfThenElse = "tvm_if_then_else"
)

// AccessPtr bit positions within the rw_mask argument.
const (
	AccessPtrRead  = 1 << 0
	AccessPtrWrite = 1 << 1
)

// NewAccessPtr builds a tvm_access_ptr call.
func NewAccessPtr(dtype DataType, buffer *Variable, offset, extent Expr, rwMask int64) *Call {
	return &Call{
		Dtype: Scalar(Handle, 64),
		Name:  IntrinsicAccessPtr,
		Args: []Expr{
			&accessPtrDType{dtype},
			buffer,
			offset,
			extent,
			&IntImm{Dtype: Int32(), Value: rwMask},
		},
		CallType: CallIntrinsic,
	}
}

// accessPtrDType carries the dtype operand tvm_access_ptr expects as its
// first argument (TVM encodes it as a type literal, not a value-bearing
// expression; we keep it as a lightweight Expr so Call.Args stays uniform).
type accessPtrDType struct{ dtype DataType }

func (d *accessPtrDType) Type() DataType { return d.dtype }
func (*accessPtrDType) isExpr()          {}

// AccessPtrDType extracts the dtype operand tvm_access_ptr was built with,
// or the zero DataType if expr isn't one.
func AccessPtrDType(expr Expr) (DataType, bool) {
	d, ok := expr.(*accessPtrDType)
	if !ok {
		return DataType{}, false
	}
	return d.dtype, true
}

// NewContextID builds a tvm_context_id() call.
func NewContextID() *Call {
	return &Call{Dtype: Scalar(Handle, 64), Name: IntrinsicContextID, CallType: CallIntrinsic}
}

// NewIfThenElse builds a tvm_if_then_else(cond, t, f) intrinsic call.
func NewIfThenElse(dtype DataType, cond, t, f Expr) *Call {
	return &Call{Dtype: dtype, Name: IntrinsicIfThenElse, Args: []Expr{cond, t, f}, CallType: CallIntrinsic}
}
