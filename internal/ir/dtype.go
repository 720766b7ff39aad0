package ir

import "fmt"

// TypeCode names the scalar kind of a DataType.
type TypeCode int

const (
	Int TypeCode = iota
	UInt
	Float
	Handle
)

func (c TypeCode) String() string {
	switch c {
	case Int:
		return "int"
	case UInt:
		return "uint"
	case Float:
		return "float"
	case Handle:
		return "handle"
	default:
		return "unknown"
	}
}

// DataType is the scalar-or-vector type carried by every expression.
type DataType struct {
	Code  TypeCode
	Bits  int
	Lanes int
}

// Scalar constructs a one-lane DataType.
func Scalar(code TypeCode, bits int) DataType {
	return DataType{Code: code, Bits: bits, Lanes: 1}
}

func Int32() DataType  { return Scalar(Int, 32) }
func Int64() DataType  { return Scalar(Int, 64) }
func UInt64() DataType { return Scalar(UInt, 64) }
func Bool() DataType   { return Scalar(UInt, 1) }

// WithLanes returns a vector DataType with the same scalar code/bits.
func (d DataType) WithLanes(lanes int) DataType {
	d.Lanes = lanes
	return d
}

// IsScalar reports whether the type carries exactly one lane.
func (d DataType) IsScalar() bool { return d.Lanes == 1 }

func (d DataType) String() string {
	if d.Lanes == 1 {
		return fmt.Sprintf("%s%d", d.Code, d.Bits)
	}
	return fmt.Sprintf("%s%dx%d", d.Code, d.Bits, d.Lanes)
}
