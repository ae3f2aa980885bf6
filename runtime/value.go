package runtime

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	gfn "github.com/panyam/goutils/fn"
	"github.com/panyam/ohscript/decl"
	"golang.org/x/text/unicode/norm"
)

// Value is a runtime value: a payload, its type and the context it was
// created in. Payloads are one of
//
//	int64, float64, string, bool      numbers, strings, booleans
//	*Array, Tuple, Map                containers
//	*Entity                           entity instances
//	*Closure, *NativeFunc             callables
//	*Future, *External                async handles, host objects
//	sentinel                          null, unit and control flow markers
type Value struct {
	Type    *Type
	Context *Context
	Value   any
}

type sentinel string

// Control flow markers and well known values. Markers are compared by
// identity; NULL and UNIT are also recognised by payload once cloned.
var (
	IGNORE   = &Value{Type: decl.IgnoreType, Value: sentinel("IGNORE")}
	BREAK    = &Value{Type: decl.IgnoreType, Value: sentinel("BREAK")}
	CONTINUE = &Value{Type: decl.IgnoreType, Value: sentinel("CONTINUE")}
	UNIT     = &Value{Type: decl.UnitType, Value: sentinel("UNIT")}
	UNKNOWN  = &Value{Type: decl.UnknownType, Value: sentinel("UNKNOWN")}
	ERROR    = &Value{Type: decl.UnknownType, Value: sentinel("ERROR")}
	DECLARED = &Value{Type: decl.IgnoreType, Value: sentinel("DECLARED")}
	NULL     = &Value{Type: decl.NullType, Value: sentinel("NULL")}
)

// returned wraps the value of a return statement on its way out through
// the blocks and loops between it and the owning function.
type returned struct{ value *Value }

func returning(v *Value) *Value {
	return &Value{Type: v.Type, Value: returned{v}}
}

// isControl is true for the values that stop a block early: break,
// continue and a pending return.
func isControl(v *Value) bool {
	if v == nil {
		return false
	}
	if v == BREAK || v == CONTINUE {
		return true
	}
	_, ok := v.Value.(returned)
	return ok
}

// bodyValue is what a function, async, safe or script body hands back:
// a pending return is unwrapped and stray markers become UNIT.
func bodyValue(v *Value) *Value {
	if r, ok := v.Value.(returned); ok {
		v = r.value
	}
	if v.IsMarker() {
		return UNIT
	}
	return v
}

// Array is a mutable sequence shared by every value that refers to it.
type Array struct {
	Items []*Value
}

// Tuple is an immutable positional sequence.
type Tuple []*Value

// Map is a string keyed container.
type Map map[string]*Value

// Entity is an instance of an entity declaration. Lookups fall through to
// Base for members the entity does not define itself.
type Entity struct {
	Name    string
	Members map[string]*Value
	Order   []string
	Base    *Value

	// declaration and the frame it was evaluated in, for extensions that
	// need their own instance
	decl  *EntityDecl
	scope *Context
}

// Lookup finds a member on the entity or along its base chain.
func (e *Entity) Lookup(name string) (*Value, bool) {
	for curr := e; curr != nil; {
		if v, ok := curr.Members[name]; ok {
			return v, true
		}
		if curr.Base == nil {
			break
		}
		curr, _ = curr.Base.Value.(*Entity)
	}
	return nil, false
}

// Closure is a script function with the context it was declared in.
type Closure struct {
	Decl    *FuncDecl
	Context *Context
}

// NativeFunc is a Go implemented callable. Arity < 0 accepts any number of
// arguments. this is the receiver when called as a method, else nil.
type NativeFunc struct {
	Name  string
	Arity int
	Fn    func(this *Value, args []*Value) *Value
}

// External wraps a host object.
type External struct {
	Class  string
	Handle any
}

// --- Constructors ---

func NumberValue[T int | int64 | float64](n T) *Value {
	switch v := any(n).(type) {
	case int:
		return &Value{Type: decl.NumberType, Value: int64(v)}
	case int64:
		return &Value{Type: decl.NumberType, Value: v}
	}
	return &Value{Type: decl.NumberType, Value: float64(n)}
}

func StringValue(s string) *Value {
	return &Value{Type: decl.StringType, Value: norm.NFC.String(s)}
}

func BoolValue(b bool) *Value {
	return &Value{Type: decl.BoolType, Value: b}
}

func ArrayValue(items ...*Value) *Value {
	var item *Type = decl.UnknownType
	if len(items) > 0 && items[0].Type != nil {
		item = items[0].Type
	}
	return &Value{Type: decl.ArrayType(item), Value: &Array{Items: items}}
}

func TupleValue(items ...*Value) *Value {
	types := gfn.Map(items, func(v *Value) *Type { return v.Type })
	return &Value{Type: decl.TupleType(types...), Value: Tuple(items)}
}

func MapValue(m Map) *Value {
	if m == nil {
		m = Map{}
	}
	return &Value{Type: decl.MapType, Value: m}
}

func NativeValue(name string, arity int, ret *Type, fn func(this *Value, args []*Value) *Value) *Value {
	return &Value{Type: decl.NativeType(arity, ret), Value: &NativeFunc{Name: name, Arity: arity, Fn: fn}}
}

func ExternalValue(class string, handle any) *Value {
	return &Value{Type: decl.ExternalType(class), Value: &External{Class: class, Handle: handle}}
}

// ParseNumber converts a number lexeme. Integral values become int64.
func ParseNumber(raw string) (*Value, error) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return NumberValue(i), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<62 {
		return NumberValue(int64(f)), nil
	}
	return NumberValue(f), nil
}

// --- Accessors ---

func (v *Value) IsNull() bool {
	return v == nil || v.Value == sentinel("NULL")
}

func (v *Value) IsUnit() bool {
	return v != nil && v.Value == sentinel("UNIT")
}

// IsMarker is true for the control flow sentinels which never reach user
// code as data.
func (v *Value) IsMarker() bool {
	switch v {
	case IGNORE, BREAK, CONTINUE, DECLARED, UNKNOWN, ERROR:
		return true
	}
	return false
}

// Number returns the numeric payload as a float and whether it was an int.
func (v *Value) Number() (f float64, isInt bool, ok bool) {
	switch n := v.Value.(type) {
	case int64:
		return float64(n), true, true
	case float64:
		return n, false, true
	}
	return 0, false, false
}

func (v *Value) Int() (int64, bool) {
	switch n := v.Value.(type) {
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

func (v *Value) Str() (string, bool) {
	s, ok := v.Value.(string)
	return s, ok
}

func (v *Value) Entity() *Entity {
	e, _ := v.Value.(*Entity)
	return e
}

// Truthy decides conditions: booleans as is and numbers when positive.
// Nothing else is ever true.
func (v *Value) Truthy() bool {
	switch b := v.Value.(type) {
	case bool:
		return b
	case int64:
		return b > 0
	case float64:
		return b > 0
	}
	return false
}

// Clone is a shallow copy: containers and entities stay shared, the binding
// itself is detached.
func (v *Value) Clone() *Value {
	if v == nil {
		return NULL.Clone()
	}
	out := *v
	return &out
}

// Set overwrites v in place with other's payload.
func (v *Value) Set(other *Value) {
	if v == other || other == nil {
		return
	}
	v.Type = other.Type
	v.Context = other.Context
	v.Value = other.Value
}

// Equals compares by payload. Integers and floats compare numerically.
func (v *Value) Equals(other *Value) bool {
	if v == other {
		return true
	}
	if v == nil || other == nil {
		return v.IsNull() && other.IsNull()
	}
	if v.IsMarker() || other.IsMarker() {
		return false
	}
	if af, _, ok := v.Number(); ok {
		bf, _, ok := other.Number()
		return ok && af == bf
	}
	switch a := v.Value.(type) {
	case sentinel, string, bool:
		return a == other.Value
	case *Array:
		b, ok := other.Value.(*Array)
		return ok && (a == b || equalItems(a.Items, b.Items))
	case Tuple:
		b, ok := other.Value.(Tuple)
		return ok && equalItems(a, b)
	case Map:
		b, ok := other.Value.(Map)
		if !ok || len(a) != len(b) {
			return false
		}
		for k, av := range a {
			if bv, ok := b[k]; !ok || !av.Equals(bv) {
				return false
			}
		}
		return true
	case *Entity:
		b, ok := other.Value.(*Entity)
		if !ok {
			return false
		}
		if a == b {
			return true
		}
		if a.Name != b.Name || len(a.Members) != len(b.Members) {
			return false
		}
		for k, av := range a.Members {
			if bv, ok := b.Members[k]; !ok || !av.Equals(bv) {
				return false
			}
		}
		return true
	}
	return v.Value == other.Value
}

func equalItems(a, b []*Value) bool {
	return slices.EqualFunc(a, b, func(x, y *Value) bool { return x.Equals(y) })
}

func (v *Value) String() string {
	if v == nil {
		return "null"
	}
	switch p := v.Value.(type) {
	case sentinel:
		switch p {
		case "NULL":
			return "null"
		case "UNIT":
			return "()"
		}
		return string(p)
	case int64:
		return strconv.FormatInt(p, 10)
	case float64:
		return strconv.FormatFloat(p, 'g', -1, 64)
	case string:
		return p
	case bool:
		return strconv.FormatBool(p)
	case *Array:
		return "[" + joinValues(p.Items) + "]"
	case Tuple:
		return "(" + joinValues(p) + ")"
	case Map:
		return "{" + strings.Join(gfn.Map(sortedKeys(p), func(k string) string { return k + ": " + p[k].String() }), ", ") + "}"
	case *Entity:
		members := gfn.Map(p.Order, func(k string) string {
			if m := p.Members[k]; m != nil {
				if _, isFn := m.Value.(*Closure); !isFn {
					return k + ": " + m.String()
				}
			}
			return k
		})
		return p.Name + "{" + strings.Join(members, ", ") + "}"
	case *Closure:
		return "func " + p.Decl.String()
	case *NativeFunc:
		return "native " + p.Name
	case *Future:
		return "future"
	case *External:
		return fmt.Sprintf("external %s(%v)", p.Class, p.Handle)
	}
	return fmt.Sprintf("%v", v.Value)
}

func joinValues(items []*Value) string {
	return strings.Join(gfn.Map(items, func(v *Value) string { return v.String() }), ", ")
}
