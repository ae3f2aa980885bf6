package decl

import (
	"fmt"
	"slices"
)

type ShapeKind int

const (
	ShapeFunction ShapeKind = iota
	ShapeArray
	ShapeMember
)

// Shape is a usage observed on a generic inside a function body: it was
// called, indexed or had a member read.
type Shape struct {
	Kind   ShapeKind
	Member string
}

func (s Shape) String() string {
	switch s.Kind {
	case ShapeFunction:
		return "callable"
	case ShapeArray:
		return "indexable"
	}
	return "has ." + s.Member
}

// Accepts reports whether a concrete argument type satisfies the shape.
func (s Shape) Accepts(t *Type) bool {
	if t.IsLoose() || t.IsAbstract() || t.Tag == TypeTagExternal {
		return true
	}
	switch s.Kind {
	case ShapeFunction:
		return t.IsCallable()
	case ShapeArray:
		switch t.Tag {
		case TypeTagArray, TypeTagMap, TypeTagTuple, TypeTagString:
			return true
		}
		return false
	}
	if _, ok := t.Member(s.Member); ok {
		return true
	}
	_, ok := BuiltinMember(t, s.Member)
	return ok
}

// AbstractInfo backs both Abstract and Generic types.
type AbstractInfo struct {
	Name string

	// Constraints recorded from usages; the type must be compatible with
	// every one of them, so they must not contradict each other.
	SupposedToBe []*Type

	// Generic only.
	ShouldBe   []Shape
	Projection *Type

	// Set on the deferred result of `+` over abstract operands.
	Operands []*Type
}

// AbstractType is a placeholder that resolves once its constraints are known.
func AbstractType(name string, supposedToBe ...*Type) *Type {
	out := &Type{Tag: TypeTagAbstract, Info: &AbstractInfo{Name: name}}
	for _, s := range supposedToBe {
		out.AddSupposedToBe(s)
	}
	return out
}

// SumType is the result of `+` while an operand is still abstract. Once the
// operands are projected it becomes String if either side is a String and
// Number if both are Numbers.
func SumType(left, right *Type) *Type {
	return &Type{Tag: TypeTagAbstract, Info: &AbstractInfo{Name: "+", Operands: []*Type{left, right}}}
}

// GenericType is the type of a function parameter until a call projects a
// concrete argument onto it.
func GenericType(name string) *Type {
	return &Type{Tag: TypeTagGeneric, Info: &AbstractInfo{Name: name}}
}

func (t *Type) IsAbstract() bool {
	return t != nil && (t.Tag == TypeTagAbstract || t.Tag == TypeTagGeneric)
}

func (t *Type) Abstract() *AbstractInfo {
	if !t.IsAbstract() {
		return nil
	}
	return t.Info.(*AbstractInfo)
}

// Projection is the type currently projected onto a generic, if any.
func (t *Type) Projection() *Type {
	if a := t.Abstract(); a != nil {
		return a.Projection
	}
	return nil
}

// IsUnresolvedAbstract is true for an abstract with no projection.
func (t *Type) IsUnresolvedAbstract() bool {
	return t.IsAbstract() && t.Projection() == nil
}

// AddSupposedToBe records a constraint, ignoring loose types and duplicates.
func (t *Type) AddSupposedToBe(c *Type) {
	a := t.Abstract()
	if a == nil || c.IsLoose() || c == t {
		return
	}
	s := c.String()
	if slices.ContainsFunc(a.SupposedToBe, func(e *Type) bool { return e.String() == s }) {
		return
	}
	a.SupposedToBe = append(a.SupposedToBe, c)
}

func (t *Type) AddShouldBe(s Shape) {
	a := t.Abstract()
	if a == nil || slices.Contains(a.ShouldBe, s) {
		return
	}
	a.ShouldBe = append(a.ShouldBe, s)
}

// Resolve picks the most specific constraint of an abstract type. No
// constraints resolves to Unknown; constraints that are not pairwise
// compatible are a contradiction.
func (t *Type) Resolve() (*Type, error) {
	a := t.Abstract()
	if a == nil {
		return t, nil
	}
	if a.Projection != nil {
		return a.Projection, nil
	}
	if len(a.SupposedToBe) == 0 {
		return UnknownType, nil
	}
	for i, x := range a.SupposedToBe {
		for _, y := range a.SupposedToBe[i+1:] {
			if !x.Is(y) && !y.Is(x) {
				return nil, fmt.Errorf("%w: %s vs %s", ErrContradiction, x, y)
			}
		}
	}
	for _, x := range a.SupposedToBe {
		specific := true
		for _, y := range a.SupposedToBe {
			if !x.Is(y) {
				specific = false
				break
			}
		}
		if specific {
			return x, nil
		}
	}
	return a.SupposedToBe[0], nil
}

// accepts checks a candidate projection against a generic's constraints.
func (t *Type) accepts(arg *Type) error {
	a := t.Abstract()
	if arg.IsLoose() {
		return nil
	}
	for _, c := range a.SupposedToBe {
		if !arg.Is(c) {
			return fmt.Errorf("%w: %s cannot be used as %s", ErrNotCompatible, arg, t)
		}
	}
	for _, s := range a.ShouldBe {
		if !s.Accepts(arg) {
			return fmt.Errorf("%w: %s is not %s", ErrNotCompatible, arg, s)
		}
	}
	return nil
}

// Project applies one argument to a function type and returns the type of
// what is left: the next curried function or the return type, with every
// projected generic substituted. When the argument is itself an unresolved
// abstract, the expected type is recorded on it instead of being checked.
func (t *Type) Project(arg *Type) (*Type, error) {
	f := t.Function()
	if f == nil {
		if n := t.Native(); n != nil {
			return n.Ret, nil
		}
		if t.IsLoose() || t.Tag == TypeTagExternal {
			return UnknownType, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, t)
	}
	origin := f.Arg
	switch {
	case origin.Tag == TypeTagGeneric:
		if err := origin.accepts(arg); err != nil {
			return nil, err
		}
		if !arg.IsLoose() {
			origin.Abstract().Projection = arg
		}
	case arg.IsUnresolvedAbstract():
		arg.AddSupposedToBe(origin)
	default:
		if !arg.Is(origin) {
			return nil, fmt.Errorf("%w: expected %s, found %s", ErrNotCompatible, origin, arg)
		}
	}
	return Materialize(f.Ret), nil
}

// ClearProjection drops projections recorded on the parameters of a
// function type so the next inference attempt starts clean.
func (t *Type) ClearProjection() {
	seen := map[*Type]bool{}
	for cur := t; cur != nil && !seen[cur]; {
		seen[cur] = true
		f := cur.Function()
		if f == nil {
			return
		}
		if a := f.Arg.Abstract(); a != nil && f.Arg.Tag == TypeTagGeneric {
			a.Projection = nil
		}
		cur = f.Ret
	}
}

// Materialize replaces projected generics with their projections.
func Materialize(t *Type) *Type {
	return materialize(t, map[*Type]*Type{})
}

func materialize(t *Type, memo map[*Type]*Type) *Type {
	if t == nil {
		return UnknownType
	}
	if out, ok := memo[t]; ok {
		return out
	}
	switch t.Tag {
	case TypeTagGeneric:
		if p := t.Projection(); p != nil {
			memo[t] = p
			out := materialize(p, memo)
			memo[t] = out
			return out
		}
		return t
	case TypeTagAbstract:
		if ops := t.Abstract().Operands; len(ops) > 0 {
			out := sumOf(materialize(ops[0], memo), materialize(ops[1], memo), t)
			memo[t] = out
			return out
		}
		return t
	case TypeTagArray:
		out := &Type{Tag: TypeTagArray, Origin: t.Origin}
		memo[t] = out
		out.Info = materialize(t.Item(), memo)
		return out
	case TypeTagFunction:
		f := t.Function()
		out := &Type{Tag: TypeTagFunction, Origin: t.Origin}
		memo[t] = out
		out.Info = &FunctionInfo{Arg: materialize(f.Arg, memo), Ret: materialize(f.Ret, memo), Curried: f.Curried}
		return out
	case TypeTagNative:
		n := t.Native()
		out := &Type{Tag: TypeTagNative, Origin: t.Origin}
		memo[t] = out
		out.Info = &NativeInfo{Arity: n.Arity, Ret: materialize(n.Ret, memo)}
		return out
	case TypeTagEntity, TypeTagTuple:
		e := t.Entity()
		out := &Type{Tag: t.Tag, Origin: t.Origin}
		memo[t] = out
		info := &EntityInfo{Name: e.Name, Members: make(map[string]*Type, len(e.Members)), Order: e.Order}
		for k, m := range e.Members {
			info.Members[k] = materialize(m, memo)
		}
		if e.Base != nil {
			info.Base = materialize(e.Base, memo)
		}
		out.Info = info
		return out
	}
	return t
}

func sumOf(l, r, deferred *Type) *Type {
	switch {
	case l.Tag == TypeTagString || r.Tag == TypeTagString:
		return StringType
	case l.IsAbstract() || r.IsAbstract():
		return deferred
	case l.Tag == TypeTagNumber && r.Tag == TypeTagNumber:
		return NumberType
	}
	return UnknownType
}

// HasUnknown reports whether any part of t is still Unknown.
func (t *Type) HasUnknown() bool {
	return t.hasUnknown(map[*Type]bool{})
}

func (t *Type) hasUnknown(seen map[*Type]bool) bool {
	if t == nil || t.Tag == TypeTagUnknown {
		return true
	}
	if seen[t] {
		return false
	}
	seen[t] = true
	switch t.Tag {
	case TypeTagArray:
		return t.Item().hasUnknown(seen)
	case TypeTagFunction:
		f := t.Function()
		return f.Arg.hasUnknown(seen) || f.Ret.hasUnknown(seen)
	case TypeTagEntity, TypeTagTuple:
		e := t.Entity()
		for _, m := range e.Members {
			if m.hasUnknown(seen) {
				return true
			}
		}
		return e.Base != nil && e.Base.hasUnknown(seen)
	}
	return false
}
