package decl

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	gfn "github.com/panyam/goutils/fn"
)

type TypeTag int

const (
	TypeTagUnknown TypeTag = iota
	TypeTagIgnore
	TypeTagUnit
	TypeTagNull
	TypeTagNumber
	TypeTagString
	TypeTagBool
	TypeTagArray
	TypeTagMap
	TypeTagFunction
	TypeTagNative
	TypeTagEntity
	TypeTagTuple
	TypeTagGeneric
	TypeTagAbstract
	TypeTagExternal
)

var (
	ErrNotCompatible = errors.New("types are not compatible")
	ErrContradiction = errors.New("contradicting type constraints")
	ErrNotCallable   = errors.New("type is not callable")
)

// Type is a tagged type expression. Info depends on Tag:
//
//	Array            *Type (item)
//	Function         *FunctionInfo
//	Native           *NativeInfo
//	Entity, Tuple    *EntityInfo
//	Generic,Abstract *AbstractInfo
//	External         string (host class, may be empty)
type Type struct {
	Tag  TypeTag
	Info any

	// Node this copy is bound to, set by Duplicate.
	Origin Node
}

type FunctionInfo struct {
	Arg *Type
	Ret *Type

	// Ret is the rest of this function's own parameter list rather than a
	// returned function value.
	Curried bool
}

type NativeInfo struct {
	Arity int
	Ret   *Type
}

type EntityInfo struct {
	Name    string
	Members map[string]*Type
	Order   []string
	Base    *Type
}

// --- Factory Functions ---

var (
	UnknownType = &Type{Tag: TypeTagUnknown}
	IgnoreType  = &Type{Tag: TypeTagIgnore}
	UnitType    = &Type{Tag: TypeTagUnit}
	NullType    = &Type{Tag: TypeTagNull}
	NumberType  = &Type{Tag: TypeTagNumber}
	StringType  = &Type{Tag: TypeTagString}
	BoolType    = &Type{Tag: TypeTagBool}
	MapType     = &Type{Tag: TypeTagMap}
)

func ArrayType(item *Type) *Type {
	if item == nil {
		item = UnknownType
	}
	return &Type{Tag: TypeTagArray, Info: item}
}

func FunctionType(arg, ret *Type) *Type {
	return &Type{Tag: TypeTagFunction, Info: &FunctionInfo{Arg: orUnknown(arg), Ret: orUnknown(ret)}}
}

// FuncOf builds the curried function type for a parameter list. A function
// without parameters takes Unit.
func FuncOf(params []*Type, ret *Type) *Type {
	if len(params) == 0 {
		return FunctionType(UnitType, ret)
	}
	out := FunctionType(params[len(params)-1], ret)
	for i := len(params) - 2; i >= 0; i-- {
		out = &Type{Tag: TypeTagFunction, Info: &FunctionInfo{Arg: orUnknown(params[i]), Ret: out, Curried: true}}
	}
	return out
}

func NativeType(arity int, ret *Type) *Type {
	return &Type{Tag: TypeTagNative, Info: &NativeInfo{Arity: arity, Ret: orUnknown(ret)}}
}

// EntityType creates an entity type. Member order follows order when given,
// otherwise the sorted member names.
func EntityType(name string, members map[string]*Type, order []string, base *Type) *Type {
	if members == nil {
		members = map[string]*Type{}
	}
	if order == nil {
		for k := range members {
			order = append(order, k)
		}
		slices.Sort(order)
	}
	return &Type{Tag: TypeTagEntity, Info: &EntityInfo{Name: name, Members: members, Order: order, Base: base}}
}

// TupleType is a positional entity keyed "0", "1", ...
func TupleType(items ...*Type) *Type {
	members := make(map[string]*Type, len(items))
	order := make([]string, len(items))
	for i, t := range items {
		key := fmt.Sprint(i)
		members[key] = orUnknown(t)
		order[i] = key
	}
	return &Type{Tag: TypeTagTuple, Info: &EntityInfo{Members: members, Order: order}}
}

func ExternalType(class string) *Type {
	return &Type{Tag: TypeTagExternal, Info: class}
}

// FutureType is the handle an async block evaluates to.
func FutureType(result *Type) *Type {
	return EntityType("Future", map[string]*Type{
		"await": FuncOf(nil, result),
		"then":  FuncOf([]*Type{FunctionType(result, UnknownType)}, UnitType),
	}, []string{"await", "then"}, nil)
}

// SafeResultType is what a safe block evaluates to.
func SafeResultType(result *Type) *Type {
	return EntityType("Safe", map[string]*Type{
		"get":        FuncOf(nil, result),
		"panic_code": NumberType,
	}, []string{"get", "panic_code"}, nil)
}

func orUnknown(t *Type) *Type {
	if t == nil {
		return UnknownType
	}
	return t
}

// --- Accessors ---

func (t *Type) Function() *FunctionInfo {
	if t == nil || t.Tag != TypeTagFunction {
		return nil
	}
	return t.Info.(*FunctionInfo)
}

func (t *Type) Native() *NativeInfo {
	if t == nil || t.Tag != TypeTagNative {
		return nil
	}
	return t.Info.(*NativeInfo)
}

func (t *Type) Entity() *EntityInfo {
	if t == nil || (t.Tag != TypeTagEntity && t.Tag != TypeTagTuple) {
		return nil
	}
	return t.Info.(*EntityInfo)
}

func (t *Type) Item() *Type {
	if t == nil || t.Tag != TypeTagArray {
		return UnknownType
	}
	return t.Info.(*Type)
}

func (t *Type) IsUnknown() bool {
	return t == nil || t.Tag == TypeTagUnknown
}

// IsLoose is true for types that are compatible with everything.
func (t *Type) IsLoose() bool {
	return t == nil || t.Tag == TypeTagUnknown || t.Tag == TypeTagIgnore
}

func (t *Type) IsCallable() bool {
	return t != nil && (t.Tag == TypeTagFunction || t.Tag == TypeTagNative || t.Tag == TypeTagExternal)
}

// Member finds a member on an entity or tuple, following the base chain.
func (t *Type) Member(name string) (*Type, bool) {
	for e := t.Entity(); e != nil; e = e.Base.Entity() {
		if m, ok := e.Members[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// MemberNames lists own members first, then inherited ones not overridden.
func (t *Type) MemberNames() (out []string) {
	seen := map[string]bool{}
	for e := t.Entity(); e != nil; e = e.Base.Entity() {
		for _, name := range e.Order {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return
}

// Duplicate returns a copy bound to node. Abstract and generic copies share
// their constraint state with the original.
func (t *Type) Duplicate(node Node) *Type {
	if t == nil {
		return &Type{Tag: TypeTagUnknown, Origin: node}
	}
	out := *t
	out.Origin = node
	return &out
}

// Extend derives an entity type whose base is t. t itself is left untouched.
func (t *Type) Extend(name string, members map[string]*Type, order []string) *Type {
	return EntityType(name, members, order, t)
}

// --- Compatibility ---

// Is reports whether a value of type t can be used where other is expected.
// Unknown and Ignore are compatible with everything in both directions,
// primitives must match exactly and entity member sets are covariant.
func (t *Type) Is(other *Type) bool {
	return t.is(other, map[[2]*Type]bool{})
}

func (t *Type) is(o *Type, seen map[[2]*Type]bool) bool {
	if t.IsLoose() || o.IsLoose() || t == o {
		return true
	}
	key := [2]*Type{t, o}
	if seen[key] {
		return true
	}
	seen[key] = true

	if o.IsAbstract() {
		if p := o.Projection(); p != nil {
			return t.is(p, seen)
		}
		for _, c := range o.Abstract().SupposedToBe {
			if !t.is(c, seen) {
				return false
			}
		}
		return true
	}
	if t.IsAbstract() {
		if p := t.Projection(); p != nil {
			return p.is(o, seen)
		}
		for _, c := range t.Abstract().SupposedToBe {
			if !c.is(o, seen) {
				return false
			}
		}
		return true
	}

	if t.Tag == TypeTagNull {
		switch o.Tag {
		case TypeTagNull, TypeTagEntity, TypeTagTuple, TypeTagArray, TypeTagMap,
			TypeTagExternal, TypeTagFunction, TypeTagNative:
			return true
		}
		return false
	}
	if t.IsCallable() && o.IsCallable() && (t.Tag == TypeTagNative || o.Tag == TypeTagNative || t.Tag == TypeTagExternal || o.Tag == TypeTagExternal) {
		return true
	}

	if t.Tag != o.Tag {
		if t.Entity() != nil && o.Entity() != nil {
			return t.membersCover(o, seen)
		}
		return false
	}

	switch t.Tag {
	case TypeTagArray:
		return t.Item().is(o.Item(), seen)
	case TypeTagFunction:
		tf, of := t.Function(), o.Function()
		argsOk := tf.Arg.is(of.Arg, seen) || of.Arg.is(tf.Arg, seen)
		return argsOk && tf.Ret.is(of.Ret, seen)
	case TypeTagEntity, TypeTagTuple:
		return t.membersCover(o, seen)
	case TypeTagExternal:
		tc, oc := t.Info.(string), o.Info.(string)
		return tc == "" || oc == "" || tc == oc
	}
	return true
}

// membersCover checks that t has every member of o with a compatible type.
func (t *Type) membersCover(o *Type, seen map[[2]*Type]bool) bool {
	for _, name := range o.MemberNames() {
		om, _ := o.Member(name)
		tm, ok := t.Member(name)
		if !ok || !tm.is(om, seen) {
			return false
		}
	}
	return true
}

// --- Printing ---

// String representation of the type
func (t *Type) String() string {
	return t.str(map[any]bool{})
}

func (t *Type) str(visiting map[any]bool) string {
	if t == nil {
		return "Unknown"
	}
	switch t.Tag {
	case TypeTagUnknown:
		return "Unknown"
	case TypeTagIgnore:
		return "Ignore"
	case TypeTagUnit:
		return "Unit"
	case TypeTagNull:
		return "Null"
	case TypeTagNumber:
		return "Number"
	case TypeTagString:
		return "String"
	case TypeTagBool:
		return "Bool"
	case TypeTagMap:
		return "Map"
	case TypeTagArray:
		return fmt.Sprintf("Array<%s>", t.Item().str(visiting))
	case TypeTagNative:
		return fmt.Sprintf("Native/%d", t.Native().Arity)
	case TypeTagExternal:
		if cls := t.Info.(string); cls != "" {
			return fmt.Sprintf("External(%s)", cls)
		}
		return "External"
	case TypeTagFunction:
		f := t.Function()
		return fmt.Sprintf("(%s)->%s", f.Arg.str(visiting), f.Ret.str(visiting))
	case TypeTagGeneric, TypeTagAbstract:
		a := t.Abstract()
		if visiting[a] {
			return "<" + a.Name + ">"
		}
		visiting[a] = true
		defer delete(visiting, a)
		if a.Projection != nil {
			return fmt.Sprintf("<%s=%s>", a.Name, a.Projection.str(visiting))
		}
		if len(a.Operands) == 2 {
			return fmt.Sprintf("<%s+%s>", a.Operands[0].str(visiting), a.Operands[1].str(visiting))
		}
		if len(a.SupposedToBe) == 0 {
			if t.Tag == TypeTagGeneric {
				return "<" + a.Name + ">"
			}
			return "Abstract"
		}
		return fmt.Sprintf("<%s:%s>", a.Name, strings.Join(gfn.Map(a.SupposedToBe, func(c *Type) string { return c.str(visiting) }), "|"))
	case TypeTagEntity, TypeTagTuple:
		e := t.Entity()
		if visiting[e] {
			if e.Name != "" {
				return e.Name
			}
			return "{...}"
		}
		visiting[e] = true
		defer delete(visiting, e)
		if t.Tag == TypeTagTuple {
			return "(" + strings.Join(gfn.Map(e.Order, func(k string) string { return e.Members[k].str(visiting) }), ", ") + ")"
		}
		members := gfn.Map(e.Order, func(k string) string { return k + ": " + e.Members[k].str(visiting) })
		out := e.Name + "{" + strings.Join(members, ", ") + "}"
		if e.Base != nil {
			out += " : " + e.Base.str(visiting)
		}
		return out
	}
	return "Unknown Type"
}

func (t *Type) PrettyPrint(cp CodePrinter) {
	cp.Print(t.String())
}
