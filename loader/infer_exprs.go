package loader

import (
	"fmt"
	"strconv"

	"github.com/panyam/ohscript/decl"
)

func (a *Analyzer) inferLiteral(l *decl.Literal) *Type {
	switch l.Kind {
	case decl.LitNumber:
		if _, err := strconv.ParseFloat(l.Raw, 64); err != nil {
			a.Errorf(TypeMismatch, l, "'%s' is not a number", l.Raw)
		}
		return decl.NumberType.Duplicate(l)
	case decl.LitString:
		return decl.StringType.Duplicate(l)
	case decl.LitBool:
		return decl.BoolType.Duplicate(l)
	case decl.LitNull:
		return decl.NullType
	}
	return decl.UnitType
}

// enclosingEntity is the entity whose body contains node, if any.
func enclosingEntity(node Node) *decl.EntityDecl {
	e, _ := decl.Enclosing(node, func(p Node) bool {
		_, ok := p.(*decl.EntityDecl)
		return ok
	}).(*decl.EntityDecl)
	return e
}

func (a *Analyzer) inferIdentifier(id *decl.Identifier) *Type {
	if id.Name == "this" {
		if ent := enclosingEntity(id); ent != nil {
			return ent.Type()
		}
		return decl.UnknownType
	}
	if sym := a.lookup(id, id.Name); sym != nil {
		if sym.Kind == SymUnknown {
			return decl.UnknownType
		}
		return sym.Type.Duplicate(id)
	}
	// inside an extension, members of the base are reachable by name
	if ent := enclosingEntity(id); ent != nil && ent.Base != nil {
		if t, ok := ent.Base.Type().Member(id.Name); ok {
			return t
		}
	}
	if call, ok := id.Parent().(*decl.CallExpr); ok && call.Callee == Node(id) {
		a.Errorf(FunctionNotDefined, id, "function '%s' is not defined", id.Name)
	} else {
		a.Errorf(VariableNotDefined, id, "'%s' is not defined", id.Name)
	}
	return decl.UnknownType
}

// constrain checks t against want. Unresolved abstracts record want as a
// constraint and untyped variables adopt it.
func (a *Analyzer) constrain(n Node, t, want *Type) bool {
	switch {
	case t.IsUnresolvedAbstract():
		t.AddSupposedToBe(want)
		return true
	case t.IsUnknown():
		if id, ok := n.(*decl.Identifier); ok {
			if sym := a.lookup(id, id.Name); sym != nil && sym.Kind == SymIdentifier && sym.Type.IsUnknown() {
				a.refine(sym, want, id)
			}
		}
		return true
	}
	return t.Is(want)
}

// arithmetic types `l op r` for + - * / %.
func (a *Analyzer) arithmetic(at Node, op string, left, right Node, lt, rt *Type) *Type {
	if op == "+" {
		isNumOrStr := func(t *Type) bool {
			return t.IsLoose() || t.IsAbstract() || t.Tag == decl.TypeTagNumber || t.Tag == decl.TypeTagString
		}
		if !isNumOrStr(lt) || !isNumOrStr(rt) {
			a.Errorf(TypeMismatch, at, "operator + expects Number or String, found %s and %s", lt, rt)
			return decl.UnknownType
		}
		switch {
		case lt.Tag == decl.TypeTagString || rt.Tag == decl.TypeTagString:
			return decl.StringType.Duplicate(at)
		case lt.Tag == decl.TypeTagNumber && rt.Tag == decl.TypeTagNumber:
			return decl.NumberType.Duplicate(at)
		case lt.IsAbstract() || rt.IsAbstract():
			return decl.SumType(lt, rt)
		}
		return decl.UnknownType
	}
	ok := true
	if !a.constrain(left, lt, decl.NumberType) {
		ok = a.Errorf(TypeMismatch, left, "operator %s expects Number, found %s", op, lt)
	}
	if !a.constrain(right, rt, decl.NumberType) {
		ok = a.Errorf(TypeMismatch, right, "operator %s expects Number, found %s", op, rt)
	}
	if !ok {
		return decl.UnknownType
	}
	return decl.NumberType.Duplicate(at)
}

func (a *Analyzer) inferBinary(b *decl.BinaryExpr) *Type {
	lt := a.infer(b.Left)
	rt := a.infer(b.Right)
	switch b.Operator {
	case "+", "-", "*", "/", "%":
		return a.arithmetic(b, b.Operator, b.Left, b.Right, lt, rt)
	case "==", "!=":
		return decl.BoolType.Duplicate(b)
	case "<", "<=", ">", ">=":
		comparable := func(t *Type) bool {
			return t.IsLoose() || t.IsAbstract() || t.Tag == decl.TypeTagNumber || t.Tag == decl.TypeTagString
		}
		if !comparable(lt) || !comparable(rt) || (!lt.IsLoose() && !rt.IsLoose() && !lt.IsAbstract() && !rt.IsAbstract() && lt.Tag != rt.Tag) {
			a.Errorf(TypeMismatch, b, "cannot compare %s %s %s", lt, b.Operator, rt)
		}
		return decl.BoolType.Duplicate(b)
	case "&&", "||":
		a.inferConditionType(b.Left, lt)
		a.inferConditionType(b.Right, rt)
		return decl.BoolType.Duplicate(b)
	}
	a.Errorf(TypeMismatch, b, "unknown operator %s", b.Operator)
	return decl.UnknownType
}

func (a *Analyzer) inferConditionType(n Node, t *Type) {
	if t.IsLoose() || t.IsAbstract() || t.Tag == decl.TypeTagBool || t.Tag == decl.TypeTagNumber {
		return
	}
	a.Errorf(TypeMismatch, n, "expected Bool, found %s", t)
}

func (a *Analyzer) inferUnary(u *decl.UnaryExpr) *Type {
	t := a.infer(u.Operand)
	switch u.Operator {
	case "-":
		if !a.constrain(u.Operand, t, decl.NumberType) {
			a.Errorf(TypeMismatch, u.Operand, "unary - expects Number, found %s", t)
			return decl.UnknownType
		}
		return decl.NumberType.Duplicate(u)
	case "!":
		if !a.constrain(u.Operand, t, decl.BoolType) {
			a.Errorf(TypeMismatch, u.Operand, "! expects Bool, found %s", t)
			return decl.UnknownType
		}
		return decl.BoolType.Duplicate(u)
	case "++", "--":
		if !a.checkAssignable(u.Operand) {
			return decl.UnknownType
		}
		if !a.constrain(u.Operand, t, decl.NumberType) {
			a.Errorf(TypeMismatch, u.Operand, "%s expects Number, found %s", u.Operator, t)
			return decl.UnknownType
		}
		return decl.NumberType.Duplicate(u)
	}
	a.Errorf(TypeMismatch, u, "unknown operator %s", u.Operator)
	return decl.UnknownType
}

// checkAssignable reports targets that can never be written.
func (a *Analyzer) checkAssignable(target Node) bool {
	switch t := target.(type) {
	case *decl.Identifier:
		sym := a.lookup(t, t.Name)
		if sym == nil {
			return true // reported when the identifier itself is inferred
		}
		if sym.Kind != SymIdentifier && sym.Kind != SymUnknown || !sym.Mutable {
			return a.Errorf(VariableNotMutable, t, "'%s' cannot be reassigned", t.Name)
		}
		return true
	case *decl.MemberAccess, *decl.IndexAccess, *decl.TupleUnpacker:
		return true
	}
	return a.Errorf(TypeMismatch, target, "%s is not assignable", target)
}

// unify finds the common type of two branches, the more general of the two
// when one is compatible with the other.
func unify(x, y *Type) (*Type, bool) {
	switch {
	case x.IsLoose():
		return y, true
	case y.IsLoose():
		return x, true
	case x.Tag == decl.TypeTagNull:
		return y, y.Is(x) || x.Is(y)
	case y.Tag == decl.TypeTagNull:
		return x, x.Is(y) || y.Is(x)
	case y.Is(x):
		return x, true
	case x.Is(y):
		return y, true
	}
	return nil, false
}

func (a *Analyzer) inferTernary(t *decl.TernaryExpr) *Type {
	a.inferCondition(t.Cond)
	tt := a.infer(t.Then)
	et := a.infer(t.Else)
	out, ok := unify(tt, et)
	if !ok {
		a.Errorf(TypeMismatch, t, "branches have different types: %s and %s", tt, et)
		return decl.UnknownType
	}
	return out
}

func (a *Analyzer) inferAssign(as *decl.AssignExpr) *Type {
	vt := a.infer(as.Value)
	if op := as.BinaryOperator(); op != "" {
		ct := a.infer(as.Target)
		vt = a.arithmetic(as, op, as.Target, as.Value, ct, vt)
	}
	if !a.checkAssignable(as.Target) {
		return vt
	}
	switch target := as.Target.(type) {
	case *decl.Identifier:
		sym := a.lookup(target, target.Name)
		if sym == nil {
			if ent := enclosingEntity(target); ent != nil && ent.Base != nil {
				if mt, ok := ent.Base.Type().Member(target.Name); ok {
					if !vt.Is(mt) {
						a.Errorf(TypeMismatch, target, "'%s' is %s, cannot be %s", target.Name, mt, vt)
					}
					return vt
				}
			}
			a.Errorf(VariableNotDefined, target, "'%s' is not defined", target.Name)
			return vt
		}
		a.refine(sym, vt, target)
		target.SetType(sym.Type)
	case *decl.MemberAccess, *decl.IndexAccess:
		tt := a.infer(target)
		if !vt.Is(tt) {
			a.Errorf(TypeMismatch, target, "%s is %s, cannot be %s", target, tt, vt)
		}
	case *decl.TupleUnpacker:
		a.destructure(target, vt, true)
	}
	return vt
}

// destructure types a pattern against t. Positional patterns match tuples,
// identifiers match entity members by name and a single ellipsis absorbs
// the positions the pattern does not name. strict reports arity mismatches,
// match arms pass false since a mismatch there just means no match.
func (a *Analyzer) destructure(pattern Node, t *Type, strict bool) {
	switch p := pattern.(type) {
	case *decl.Identifier:
		if p.IsDiscard() {
			p.SetType(decl.IgnoreType)
			return
		}
		sym := a.lookup(p, p.Name)
		if sym == nil {
			a.Errorf(VariableNotDefined, p, "'%s' is not defined", p.Name)
			return
		}
		a.refine(sym, t, p)
		p.SetType(sym.Type)
	case *decl.Literal:
		lt := a.infer(p)
		if strict && !lt.Is(t) {
			a.Errorf(TypeMismatch, p, "%s cannot match %s", lt, t)
		}
	case *decl.Ellipsis:
		p.SetType(decl.IgnoreType)
	case *decl.TupleUnpacker:
		p.SetType(t)
		a.destructureTuple(p, t, strict)
	default:
		a.Errorf(TypeMismatch, pattern, "%s is not a valid pattern", pattern)
	}
}

func (a *Analyzer) destructureTuple(p *decl.TupleUnpacker, t *Type, strict bool) {
	if t.IsLoose() || t.IsAbstract() || t.Tag == decl.TypeTagExternal {
		for _, item := range p.Items {
			a.destructure(item, decl.UnknownType, strict)
		}
		return
	}
	if t.Tag == decl.TypeTagArray {
		for _, item := range p.Items {
			a.destructure(item, t.Item(), strict)
		}
		return
	}
	e := t.Entity()
	if e == nil {
		a.Errorf(TypeMismatch, p, "cannot destructure %s", t)
		return
	}
	if t.Tag == decl.TypeTagEntity {
		for _, item := range p.Items {
			switch it := item.(type) {
			case *decl.Ellipsis:
			case *decl.Identifier:
				if it.IsDiscard() {
					continue
				}
				mt, ok := t.Member(it.Name)
				if !ok {
					a.Errorf(EntityMemberNotDefined, it, "%s has no member '%s'", t, it.Name)
					mt = decl.UnknownType
				}
				a.destructure(it, mt, strict)
			default:
				a.Errorf(TypeMismatch, item, "entities destructure by name only")
			}
		}
		return
	}

	n, items, ell := len(e.Order), len(p.Items), p.EllipsisIndex()
	if strict && ((ell < 0 && items != n) || (ell >= 0 && items-1 > n)) {
		a.Errorf(TypeMismatch, p, "pattern has %d items but %s has %d", items, t, n)
	}
	for i, item := range p.Items {
		if i == ell {
			continue
		}
		pos := i
		if ell >= 0 && i > ell {
			pos = i + n - items
		}
		mt, ok := e.Members[fmt.Sprint(pos)]
		if !ok {
			mt = decl.UnknownType
		}
		a.destructure(item, mt, strict)
	}
}

func (a *Analyzer) inferFuncDecl(f *decl.FuncDecl) *Type {
	params := make([]*Type, len(f.Params))
	own := a.scope(f.OwnScope())
	for i, p := range f.Params {
		sym := own.Local(p.Name)
		if sym == nil {
			params[i] = decl.UnknownType
			continue
		}
		params[i] = sym.Type
		p.SetType(sym.Type)
	}
	bt := a.infer(f.Body)
	ret := bt
	if !f.IsExpressionBodied() {
		ret = decl.UnitType
		if r := firstReturn(f.Body); r != nil {
			ret = r.Type()
		}
	}
	out := decl.FuncOf(params, ret)
	if f.Name != "" {
		if sym := a.scope(f.Scope()).Local(f.Name); sym != nil {
			a.replace(sym, out)
		}
	}
	return out
}

func (a *Analyzer) inferCall(c *decl.CallExpr) *Type {
	ct := a.infer(c.Callee)
	args := make([]*Type, len(c.Args))
	for i, arg := range c.Args {
		args[i] = a.infer(arg)
	}

	switch {
	case ct.Tag == decl.TypeTagGeneric && ct.Projection() == nil:
		ct.AddShouldBe(decl.Shape{Kind: decl.ShapeFunction})
		return decl.UnknownType
	case ct.IsLoose() || ct.IsAbstract() || ct.Tag == decl.TypeTagExternal:
		return decl.UnknownType
	case ct.Tag == decl.TypeTagNative:
		n := ct.Native()
		if n.Arity >= 0 && len(args) != n.Arity {
			a.Errorf(ArgumentNotExist, c, "expected %d argument(s), found %d", n.Arity, len(args))
			return decl.UnknownType
		}
		return n.Ret
	case ct.Tag != decl.TypeTagFunction:
		a.Errorf(TypeMismatch, c.Callee, "%s is not callable, it is %s", c.Callee, ct)
		return decl.UnknownType
	}

	ct.ClearProjection()
	defer ct.ClearProjection()

	if len(args) == 0 {
		f := ct.Function()
		if f.Arg.Tag != decl.TypeTagUnit && !f.Arg.IsLoose() {
			a.Errorf(ArgumentMissing, c, "%s expects arguments", c.Callee)
			return decl.UnknownType
		}
		out, err := ct.Project(decl.UnitType)
		if err != nil {
			a.Errorf(TypeMismatch, c, "%v", err)
			return decl.UnknownType
		}
		return out
	}

	curr := ct
	for i, at := range args {
		f := curr.Function()
		if f == nil {
			if curr.IsLoose() {
				return decl.UnknownType
			}
			a.Errorf(ArgumentNotExist, c.Args[i], "too many arguments to %s", c.Callee)
			return decl.UnknownType
		}
		if f.Arg.Tag == decl.TypeTagUnit {
			a.Errorf(ArgumentNotExist, c.Args[i], "%s takes no arguments", c.Callee)
			return decl.UnknownType
		}
		next, err := curr.Project(at)
		if err != nil {
			a.Errorf(TypeMismatch, c.Args[i], "argument %d of %s: %v", i+1, c.Callee, err)
			return decl.UnknownType
		}
		if i == len(args)-1 && f.Curried {
			a.Errorf(ArgumentMissing, c, "not enough arguments to %s", c.Callee)
			return decl.UnknownType
		}
		curr = next
	}
	return curr
}

// viaSelf is true when a member is reached through this, base or .base.
func viaSelf(host Node) bool {
	switch h := host.(type) {
	case *decl.Identifier:
		return h.Name == "this" || h.Name == "base"
	case *decl.MemberAccess:
		return h.Member == "base"
	}
	return false
}

func (a *Analyzer) inferMember(m *decl.MemberAccess) *Type {
	ht := a.infer(m.Host)
	if isPrivate(m.Member) && !viaSelf(m.Host) {
		a.Errorf(EntityMemberAccessDenied, m, "'%s' is private", m.Member)
		return decl.UnknownType
	}
	switch {
	case ht.Tag == decl.TypeTagGeneric && ht.Projection() == nil:
		ht.AddShouldBe(decl.Shape{Kind: decl.ShapeMember, Member: m.Member})
		return decl.UnknownType
	case ht.IsLoose() || ht.IsAbstract() || ht.Tag == decl.TypeTagExternal:
		return decl.UnknownType
	case ht.Entity() != nil:
		if m.Member == "base" {
			if base := ht.Entity().Base; base != nil {
				return base
			}
		}
		if t, ok := ht.Member(m.Member); ok {
			return t
		}
		a.Errorf(EntityMemberNotDefined, m, "%s has no member '%s'", ht, m.Member)
		return decl.UnknownType
	case decl.HasBuiltins(ht):
		if t, ok := decl.BuiltinMember(ht, m.Member); ok {
			return t
		}
	}
	a.Errorf(SystemMemberNotFound, m, "%s has no member '%s'", ht, m.Member)
	return decl.UnknownType
}

func (a *Analyzer) inferIndex(ix *decl.IndexAccess) *Type {
	ht := a.infer(ix.Host)
	it := a.infer(ix.Index)
	switch {
	case ht.Tag == decl.TypeTagGeneric && ht.Projection() == nil:
		ht.AddShouldBe(decl.Shape{Kind: decl.ShapeArray})
		return decl.UnknownType
	case ht.IsLoose() || ht.IsAbstract() || ht.Tag == decl.TypeTagExternal:
		return decl.UnknownType
	case ht.Tag == decl.TypeTagArray:
		if !a.constrain(ix.Index, it, decl.NumberType) {
			a.Errorf(TypeMismatch, ix.Index, "array index must be Number, found %s", it)
		}
		return ht.Item()
	case ht.Tag == decl.TypeTagString:
		if !a.constrain(ix.Index, it, decl.NumberType) {
			a.Errorf(TypeMismatch, ix.Index, "string index must be Number, found %s", it)
		}
		return decl.StringType
	case ht.Tag == decl.TypeTagMap:
		if !a.constrain(ix.Index, it, decl.StringType) {
			a.Errorf(TypeMismatch, ix.Index, "map key must be String, found %s", it)
		}
		return decl.UnknownType
	case ht.Tag == decl.TypeTagTuple:
		if lit, ok := ix.Index.(*decl.Literal); ok && lit.Kind == decl.LitNumber {
			if t, ok := ht.Member(lit.Raw); ok {
				return t
			}
		}
		return decl.UnknownType
	}
	a.Errorf(TypeMismatch, ix.Host, "%s is not indexable", ht)
	return decl.UnknownType
}

func (a *Analyzer) inferEntity(e *decl.EntityDecl) *Type {
	var base *Type
	if e.Base != nil {
		if id, ok := e.Base.(*decl.Identifier); ok && a.lookup(id, id.Name) == nil {
			a.Errorf(EntityNotFound, id, "entity '%s' is not defined", id.Name)
			id.SetType(decl.UnknownType)
		} else {
			bt := a.infer(e.Base)
			switch {
			case bt.Entity() != nil:
				base = bt
			case !bt.IsLoose():
				a.Errorf(EntityNotFound, e.Base, "%s is not an entity", bt)
			}
		}
		if sym := a.scope(e.OwnScope()).Local("base"); sym != nil && base != nil {
			a.replace(sym, base)
		}
	}

	members := map[string]*Type{}
	var order []string
	own := a.scope(e.OwnScope())
	add := func(name string) {
		sym := own.Local(name)
		if sym == nil {
			return
		}
		if _, dup := members[name]; !dup {
			order = append(order, name)
		}
		members[name] = sym.Type
	}
	for _, m := range e.Members {
		a.infer(m)
		switch md := m.(type) {
		case *decl.VarDecl:
			for _, id := range md.Names() {
				add(id.Name)
			}
		case *decl.FuncDecl:
			if md.Name != "" {
				add(md.Name)
			}
		}
	}

	out := decl.EntityType(e.Name, members, order, base)
	if e.Name != "" {
		if sym := a.scope(e.Scope()).Local(e.Name); sym != nil {
			a.replace(sym, out)
		}
	}
	return out
}

func (a *Analyzer) inferTuple(t *decl.TupleDecl) *Type {
	items := make([]*Type, len(t.Items))
	for i, item := range t.Items {
		items[i] = a.infer(item)
	}
	return decl.TupleType(items...)
}

func (a *Analyzer) inferArray(arr *decl.ArrayDecl) *Type {
	item := decl.UnknownType
	for _, n := range arr.Items {
		it := a.infer(n)
		next, ok := unify(item, it)
		if !ok {
			a.Errorf(TypeMismatch, n, "array items must share a type, found %s and %s", item, it)
			continue
		}
		item = next
	}
	return decl.ArrayType(item)
}

func (a *Analyzer) inferMap(m *decl.MapDecl) *Type {
	for i, k := range m.Keys {
		kt := a.infer(k)
		if !a.constrain(k, kt, decl.StringType) {
			a.Errorf(TypeMismatch, k, "map key must be String, found %s", kt)
		}
		a.infer(m.Values[i])
	}
	return decl.MapType
}

func (a *Analyzer) inferMatch(m *decl.MatchExpr) *Type {
	st := a.infer(m.Subject)
	out := decl.UnknownType
	consistent := true
	for _, arm := range m.Arms {
		a.destructure(arm.Pattern, st, false)
		bt := a.infer(arm.Body)
		arm.SetType(bt)
		if next, ok := unify(out, bt); ok && consistent {
			out = next
		} else {
			consistent = false
		}
	}
	if !consistent {
		return decl.UnknownType
	}
	return out
}

func (a *Analyzer) inferPanic(p *decl.PanicExpr) *Type {
	ct := a.infer(p.Code)
	if !a.constrain(p.Code, ct, decl.NumberType) {
		a.Errorf(TypeMismatch, p.Code, "panic code must be Number, found %s", ct)
	}
	if p.Message != nil {
		a.infer(p.Message)
	}
	return decl.IgnoreType
}
