package runtime

import (
	"fmt"
	"math"
	"strconv"

	gfn "github.com/panyam/goutils/fn"
	"github.com/panyam/ohscript/decl"
)

func (in *Interpreter) evalLiteral(l *Literal) *Value {
	switch l.Kind {
	case decl.LitNumber:
		v, err := ParseNumber(l.Raw)
		ensureNoErr(l, err)
		return v
	case decl.LitString:
		return StringValue(l.Raw)
	case decl.LitBool:
		return BoolValue(l.Raw == "true")
	case decl.LitNull:
		return NULL
	case decl.LitUnit:
		return UNIT
	}
	panic(&InternalError{Node: l, Err: fmt.Errorf("unknown literal kind %s", l.Kind)})
}

// evalIdentifier resolves lexically first, then as a member of the
// current receiver, which is how inherited members are reached.
func (in *Interpreter) evalIdentifier(id *Identifier, ctx *Context) *Value {
	if v, ok := ctx.Get(id.Name); ok {
		return v
	}
	if m, ok := thisMember(ctx, id.Name); ok {
		return m
	}
	raise(CodeVarNotFound, id, "%q is not defined", id.Name)
	return nil
}

func thisMember(ctx *Context, name string) (*Value, bool) {
	this, ok := ctx.Get("this")
	if !ok {
		return nil, false
	}
	if ent := this.Entity(); ent != nil {
		return ent.Lookup(name)
	}
	return nil, false
}

func (in *Interpreter) evalItems(items []Node, ctx *Context) []*Value {
	return gfn.Map(items, func(n Node) *Value { return in.Eval(n, ctx).Clone() })
}

func (in *Interpreter) evalMap(m *decl.MapDecl, ctx *Context) *Value {
	out := Map{}
	for i, k := range m.Keys {
		out[in.key(k, in.Eval(k, ctx))] = in.Eval(m.Values[i], ctx).Clone()
	}
	return &Value{Type: m.Type(), Context: ctx, Value: out}
}

// --- Operators ---

func (in *Interpreter) evalBinary(b *decl.BinaryExpr, ctx *Context) *Value {
	switch b.Operator {
	case "&&":
		if !in.Eval(b.Left, ctx).Truthy() {
			return BoolValue(false)
		}
		return BoolValue(in.Eval(b.Right, ctx).Truthy())
	case "||":
		if in.Eval(b.Left, ctx).Truthy() {
			return BoolValue(true)
		}
		return BoolValue(in.Eval(b.Right, ctx).Truthy())
	}
	// snapshot the left side, evaluating the right may reassign it
	left := in.Eval(b.Left, ctx).Clone()
	return binaryOp(b, b.Operator, left, in.Eval(b.Right, ctx))
}

func (in *Interpreter) evalUnary(u *decl.UnaryExpr, ctx *Context) *Value {
	switch u.Operator {
	case "++", "--":
		cur := in.Eval(u.Operand, ctx)
		next := binaryOp(u, u.Operator[:1], cur, NumberValue(1))
		old := cur.Clone()
		in.assign(u.Operand, next, ctx)
		if u.Postfix {
			return old
		}
		return next
	case "-":
		v := in.Eval(u.Operand, ctx)
		switch n := v.Value.(type) {
		case int64:
			if n == math.MinInt64 {
				return NumberValue(-float64(n))
			}
			return NumberValue(-n)
		case float64:
			return NumberValue(-n)
		}
		raise(CodeBadOperand, u, "cannot negate %s", v)
	case "!":
		return BoolValue(!in.Eval(u.Operand, ctx).Truthy())
	}
	panic(&InternalError{Node: u, Err: fmt.Errorf("unknown unary operator %q", u.Operator)})
}

// --- Assignment ---

func (in *Interpreter) evalAssign(a *decl.AssignExpr, ctx *Context) *Value {
	value := in.Eval(a.Value, ctx)
	if isControl(value) {
		return value
	}
	if op := a.BinaryOperator(); op != "" {
		value = binaryOp(a, op, in.Eval(a.Target, ctx), value)
	}
	in.assign(a.Target, value, ctx)
	return value
}

// assign stores v into target, overwriting existing bindings in place.
func (in *Interpreter) assign(target Node, v *Value, ctx *Context) {
	switch t := target.(type) {
	case *Identifier:
		if ctx.Assign(t.Name, v) {
			return
		}
		if m, ok := thisMember(ctx, t.Name); ok {
			m.Set(v)
			return
		}
		raise(CodeVarNotFound, t, "%q is not defined", t.Name)
	case *decl.MemberAccess:
		host := in.Eval(t.Host, ctx)
		if ent := host.Entity(); ent != nil {
			if m, ok := ent.Lookup(t.Member); ok {
				m.Set(v)
				return
			}
			raise(CodeFieldNotFound, t, "%s has no member %q", ent.Name, t.Member)
		}
		raise(CodeNotAssignable, t, "cannot assign to %s", t)
	case *decl.IndexAccess:
		host := in.Eval(t.Host, ctx)
		idx := in.Eval(t.Index, ctx)
		switch h := host.Value.(type) {
		case *Array:
			h.Items[in.position(t.Index, idx, len(h.Items))] = v.Clone()
		case Map:
			h[in.key(t.Index, idx)] = v.Clone()
		default:
			raise(CodeNotMapOrArray, t, "%s is not a map or array", host)
		}
	case *TupleUnpacker:
		in.bind(t, v, ctx, func(id *Identifier, item *Value) { in.assign(id, item, ctx) })
	default:
		raise(CodeNotAssignable, target, "cannot assign to %s", target)
	}
}

// bind destructures v into pattern and faults if the shapes disagree.
func (in *Interpreter) bind(pattern Node, v *Value, ctx *Context, put func(*Identifier, *Value)) {
	if !in.destructure(pattern, v, ctx, put) {
		raise(CodeNotMapOrArray, pattern, "cannot destructure %s into %s", v, pattern)
	}
}

// destructure matches v against pattern, calling put for every name the
// pattern binds. Literals must equal the value in their position.
func (in *Interpreter) destructure(pattern Node, v *Value, ctx *Context, put func(*Identifier, *Value)) bool {
	switch p := pattern.(type) {
	case *Identifier:
		if !p.IsDiscard() {
			put(p, v)
		}
		return true
	case *decl.Ellipsis:
		return true
	case *TupleUnpacker:
		return in.destructureItems(p, v, ctx, put)
	}
	return in.Eval(pattern, ctx).Equals(v)
}

func (in *Interpreter) destructureItems(p *TupleUnpacker, v *Value, ctx *Context, put func(*Identifier, *Value)) bool {
	var items []*Value
	switch c := v.Value.(type) {
	case Tuple:
		items = c
	case *Array:
		items = c.Items
	case *Entity:
		// by member name
		for _, item := range p.Items {
			switch it := item.(type) {
			case *decl.Ellipsis:
			case *Identifier:
				if it.IsDiscard() {
					continue
				}
				m, ok := c.Lookup(it.Name)
				if !ok {
					return false
				}
				put(it, m)
			default:
				return false
			}
		}
		return true
	default:
		return false
	}

	n, rest := len(p.Items), p.EllipsisIndex()
	if (rest < 0 && len(items) != n) || (rest >= 0 && len(items) < n-1) {
		return false
	}
	for i, item := range p.Items {
		if i == rest {
			continue
		}
		pos := i
		if rest >= 0 && i > rest {
			pos = i + len(items) - n
		}
		if !in.destructure(item, items[pos], ctx, put) {
			return false
		}
	}
	return true
}

// --- Functions and calls ---

func (in *Interpreter) closure(f *FuncDecl, ctx *Context) *Value {
	return &Value{Type: f.Type(), Context: ctx, Value: &Closure{Decl: f, Context: ctx}}
}

func (in *Interpreter) evalFuncDecl(f *FuncDecl, ctx *Context) *Value {
	if f.Name == "" {
		return in.closure(f, ctx)
	}
	// already hoisted into this frame
	if v, owner := ctx.Lookup(f.Name); owner == ctx {
		if c, ok := v.Value.(*Closure); ok && c.Decl == f {
			return v
		}
	}
	out := in.closure(f, ctx)
	ctx.Put(f.Name, out)
	return out
}

func (in *Interpreter) evalCall(c *decl.CallExpr, ctx *Context) *Value {
	ctx.TakeThis()
	callee := in.Eval(c.Callee, ctx)
	this := ctx.TakeThis()
	args := make([]*Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = in.Eval(a, ctx).Clone()
	}
	return in.call(c, callee, this, args)
}

// call invokes a closure or native. this is the receiver picked up from a
// member access on the callee, nil for plain calls.
func (in *Interpreter) call(at Node, callee, this *Value, args []*Value) (out *Value) {
	if t := in.rt.Tracer; t != nil {
		enter := t.Enter(in.traceParent, EventEnter, calleeName(callee), at, args...)
		prev := in.traceParent
		in.traceParent = enter.ID
		defer func() {
			in.traceParent = prev
			r := recover()
			var err error
			if r != nil {
				err = asError(r)
			}
			t.Exit(enter, out, err)
			if r != nil {
				panic(r)
			}
		}()
	}
	switch fn := callee.Value.(type) {
	case *Closure:
		return in.callClosure(fn, this, args)
	case *NativeFunc:
		return in.callNative(at, fn, this, args)
	}
	raise(CodeNotCallable, at, "%s is not callable", callee)
	return nil
}

func calleeName(callee *Value) string {
	switch fn := callee.Value.(type) {
	case *Closure:
		return fn.Decl.String()
	case *NativeFunc:
		return fn.Name
	}
	return callee.String()
}

func (in *Interpreter) callClosure(fn *Closure, this *Value, args []*Value) *Value {
	frame := fn.Context.Push(fn.Decl.OwnScope())
	if this != nil {
		if _, ok := fn.Context.Get("this"); !ok {
			frame.Put("this", this)
		}
	}
	for i, p := range fn.Decl.Params {
		frame.Put(p.Name, arg(args, i).Clone())
	}
	var out *Value
	if body, ok := fn.Decl.Body.(*Block); ok {
		out = in.evalBlock(body, frame)
	} else {
		out = in.Eval(fn.Decl.Body, frame)
	}
	if out = bodyValue(out); out == UNIT {
		return out
	}
	return out.Clone()
}

func (in *Interpreter) callNative(at Node, fn *NativeFunc, this *Value, args []*Value) (out *Value) {
	if fn.Arity >= 0 && len(args) != fn.Arity {
		raise(CodeBadOperand, at, "%s expects %d arguments, got %d", fn.Name, fn.Arity, len(args))
	}
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*Fault); ok && f.Node == nil {
				f.Node = at
			}
			panic(r)
		}
	}()
	out = fn.Fn(this, args)
	if out == nil || out.IsMarker() {
		return UNIT
	}
	return out
}

// --- Members and indexing ---

// evalMember resolves a member and leaves the host as the pending receiver
// for a call around it.
func (in *Interpreter) evalMember(m *decl.MemberAccess, ctx *Context) *Value {
	host := in.Eval(m.Host, ctx)
	out := in.member(m, host)
	ctx.SetThis(host)
	return out
}

func (in *Interpreter) member(m *decl.MemberAccess, host *Value) *Value {
	switch h := host.Value.(type) {
	case *Entity:
		if v, ok := h.Lookup(m.Member); ok {
			return v
		}
		if m.Member == "base" && h.Base != nil {
			return h.Base
		}
		raise(CodeFieldNotFound, m, "%s has no member %q", h.Name, m.Member)
	case Tuple:
		if i, err := strconv.Atoi(m.Member); err == nil && i >= 0 && i < len(h) {
			return h[i]
		}
		raise(CodeFieldNotFound, m, "tuple has no member %q", m.Member)
	case *Future:
		return in.futureMember(m, h)
	case *External:
		if mh, ok := h.Handle.(MemberHost); ok {
			if v, ok := mh.Member(m.Member); ok {
				return v
			}
		}
		raise(CodeFieldNotFound, m, "%s has no member %q", h.Class, m.Member)
	}
	if methodTable(host) != nil {
		if v, ok := builtinMethod(host, m.Member); ok {
			return v
		}
		// the analyzer rejects unknown builtins, so reaching here is a bug
		panic(&InternalError{Node: m, Err: fmt.Errorf("%w: %s on %s", ErrNoBuiltin, m.Member, host.Type)})
	}
	raise(CodeFieldNotFound, m, "cannot read %q of %s", m.Member, host)
	return nil
}

func (in *Interpreter) evalIndex(x *decl.IndexAccess, ctx *Context) *Value {
	host := in.Eval(x.Host, ctx)
	idx := in.Eval(x.Index, ctx)
	switch h := host.Value.(type) {
	case Map:
		if v, ok := h[in.key(x.Index, idx)]; ok {
			return v
		}
		return NULL
	case *Array:
		return h.Items[in.position(x.Index, idx, len(h.Items))]
	case Tuple:
		return h[in.position(x.Index, idx, len(h))]
	case string:
		runes := []rune(h)
		return StringValue(string(runes[in.position(x.Index, idx, len(runes))]))
	}
	raise(CodeNotMapOrArray, x, "%s is not a map or array", host)
	return nil
}

func (in *Interpreter) position(at Node, idx *Value, n int) int {
	i, ok := idx.Int()
	if !ok {
		raise(CodeBadOperand, at, "index must be an integer, found %s", idx)
	}
	if i < 0 || i >= int64(n) {
		raise(CodeIndexRange, at, "index %d out of range [0, %d)", i, n)
	}
	return int(i)
}

func (in *Interpreter) key(at Node, k *Value) string {
	s, ok := k.Str()
	if !ok {
		raise(CodeBadOperand, at, "map keys are strings, found %s", k)
	}
	return s
}
