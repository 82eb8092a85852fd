package schema

// Kind identifies the shape of a type descriptor.
type Kind uint8

const (
	// KindBool is a boolean.
	KindBool Kind = iota + 1
	// KindByte is a signed 8-bit integer.
	KindByte
	// KindI16 is a signed 16-bit integer.
	KindI16
	// KindI32 is a signed 32-bit integer.
	KindI32
	// KindI64 is a signed 64-bit integer.
	KindI64
	// KindDouble is an IEEE 754 double.
	KindDouble
	// KindString is a UTF-8 string.
	KindString
	// KindBinary is an opaque byte sequence.
	KindBinary
	// KindEnum is a value of a declared enum.
	KindEnum
	// KindMessage is a struct or union record.
	KindMessage
	// KindList is an ordered sequence.
	KindList
	// KindSet is an unordered collection of unique items.
	KindSet
	// KindMap is a key to value mapping.
	KindMap
)

// String returns the kind name as used in type expressions.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindByte:
		return "byte"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindEnum:
		return "enum"
	case KindMessage:
		return "message"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// IsPrimitive returns true for the scalar kinds.
func (k Kind) IsPrimitive() bool {
	return k >= KindBool && k <= KindBinary
}

// IsInteger returns true for the signed integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindByte && k <= KindI64
}

// IsContainer returns true for list, set and map.
func (k Kind) IsContainer() bool {
	return k == KindList || k == KindSet || k == KindMap
}

// IntRange returns the inclusive bounds of an integer kind.
func (k Kind) IntRange() (lo, hi int64) {
	switch k {
	case KindByte:
		return -1 << 7, 1<<7 - 1
	case KindI16:
		return -1 << 15, 1<<15 - 1
	case KindI32:
		return -1 << 31, 1<<31 - 1
	default:
		return -1 << 63, 1<<63 - 1
	}
}
