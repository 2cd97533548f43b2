// Package model defines the scalar type system and element/property
// descriptors shared by every stage of the PLY parsing pipeline.
package model

import "fmt"

// ScalarType tags one of PLY's eight primitive types, plus None, the
// sentinel used in the count-type field of scalar (non-list) properties.
type ScalarType uint8

const (
	None ScalarType = iota
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Float32
	Float64
)

// scalarSizes is indexed by ScalarType; None has no defined size.
var scalarSizes = [...]int{
	None:    0,
	Int8:    1,
	UInt8:   1,
	Int16:   2,
	UInt16:  2,
	Int32:   4,
	UInt32:  4,
	Float32: 4,
	Float64: 8,
}

// Size returns the on-disk and in-memory byte size of t. Panics on None
// since callers must only ask the size of an actual value type.
func (t ScalarType) Size() int {
	if t == None || int(t) >= len(scalarSizes) {
		panic(fmt.Sprintf("model: Size() of invalid scalar type %d", t))
	}
	return scalarSizes[t]
}

// IsInteger reports whether t is one of the six integer types.
func (t ScalarType) IsInteger() bool {
	switch t {
	case Int8, UInt8, Int16, UInt16, Int32, UInt32:
		return true
	}
	return false
}

func (t ScalarType) String() string {
	switch t {
	case None:
		return "none"
	case Int8:
		return "int8"
	case UInt8:
		return "uint8"
	case Int16:
		return "int16"
	case UInt16:
		return "uint16"
	case Int32:
		return "int32"
	case UInt32:
		return "uint32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return "unknown"
}

// ScalarTypeByName resolves both the classical PLY type names (char,
// uchar, short, ushort, int, uint, float, double) and the explicit-width
// aliases (int8, uint8, int16, uint16, int32, uint32) to a ScalarType.
func ScalarTypeByName(name string) (ScalarType, bool) {
	switch name {
	case "char", "int8":
		return Int8, true
	case "uchar", "uint8":
		return UInt8, true
	case "short", "int16":
		return Int16, true
	case "ushort", "uint16":
		return UInt16, true
	case "int", "int32":
		return Int32, true
	case "uint", "uint32":
		return UInt32, true
	case "float", "float32":
		return Float32, true
	case "double", "float64":
		return Float64, true
	}
	return None, false
}

// Format identifies the on-disk encoding declared by the PLY header's
// "format" line.
type Format uint8

const (
	ASCII Format = iota
	BinaryLittleEndian
	BinaryBigEndian
)

func (f Format) String() string {
	switch f {
	case ASCII:
		return "ascii"
	case BinaryLittleEndian:
		return "binary_little_endian"
	case BinaryBigEndian:
		return "binary_big_endian"
	}
	return "unknown"
}

// FormatByName resolves the three format tokens accepted after "format".
func FormatByName(name string) (Format, bool) {
	switch name {
	case "ascii":
		return ASCII, true
	case "binary_little_endian":
		return BinaryLittleEndian, true
	case "binary_big_endian":
		return BinaryBigEndian, true
	}
	return 0, false
}
