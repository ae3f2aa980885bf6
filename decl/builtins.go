package decl

import "slices"

// Member names of the built-in receivers. The interpreter's method table
// implements exactly these.
var (
	ArrayBuiltins  = []string{"size", "insert", "remove", "push"}
	MapBuiltins    = []string{"size", "keys", "has"}
	StringBuiltins = []string{"size", "upper", "lower", "matches"}
)

// BuiltinMember returns the type of a built-in method on arrays, maps and
// strings.
func BuiltinMember(host *Type, name string) (*Type, bool) {
	switch host.Tag {
	case TypeTagArray:
		if !slices.Contains(ArrayBuiltins, name) {
			return nil, false
		}
		item := host.Item()
		switch name {
		case "size":
			return FuncOf(nil, NumberType), true
		case "insert":
			return FuncOf([]*Type{NumberType, item}, UnitType), true
		case "remove":
			return FuncOf([]*Type{NumberType}, item), true
		case "push":
			return FuncOf([]*Type{item}, UnitType), true
		}
	case TypeTagMap:
		switch name {
		case "size":
			return FuncOf(nil, NumberType), true
		case "keys":
			return FuncOf(nil, ArrayType(StringType)), true
		case "has":
			return FuncOf([]*Type{StringType}, BoolType), true
		}
	case TypeTagString:
		switch name {
		case "size":
			return FuncOf(nil, NumberType), true
		case "upper", "lower":
			return FuncOf(nil, StringType), true
		case "matches":
			return FuncOf([]*Type{StringType}, BoolType), true
		}
	}
	return nil, false
}

// HasBuiltins is true for types whose members come from the method table.
func HasBuiltins(t *Type) bool {
	switch t.Tag {
	case TypeTagArray, TypeTagMap, TypeTagString:
		return true
	}
	return false
}
