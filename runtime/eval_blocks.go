package runtime

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/panyam/ohscript/decl"
)

// --- Entities ---

func (in *Interpreter) evalEntity(e *EntityDecl, ctx *Context) *Value {
	out := in.instantiate(e, ctx)
	if e.Name != "" {
		ctx.Put(e.Name, out)
	}
	return out
}

// instantiate evaluates the members in a fresh frame and turns the frame's
// bindings into the entity. Members stay shared with the frame, so methods
// assigning to a member name update the entity.
func (in *Interpreter) instantiate(e *EntityDecl, ctx *Context) *Value {
	frame := ctx.Push(e.OwnScope())
	ent := &Entity{Name: e.Name, Members: map[string]*Value{}, decl: e, scope: ctx}
	out := &Value{Type: e.Type(), Context: frame, Value: ent}

	if e.Base != nil {
		base := in.Eval(e.Base, ctx)
		if base.Entity() == nil {
			raise(CodeBadOperand, e.Base, "cannot extend %s", base)
		}
		ent.Base = in.extend(base)
		frame.Put("base", ent.Base)
	}
	frame.Put("this", out)

	in.hoist(e.Members, frame)
	for _, m := range e.Members {
		in.Eval(m, frame)
	}
	bound := frame.All()
	for _, name := range frame.Names() {
		if name == "this" || name == "base" {
			continue
		}
		ent.Members[name] = bound[name]
		ent.Order = append(ent.Order, name)
	}
	return out
}

// extend gives an extension its own copy of base. A declared entity is
// instantiated again where it was declared, so inherited methods work on
// the copy and the original is never touched. Anything else is cloned.
func (in *Interpreter) extend(base *Value) *Value {
	if src := base.Entity(); src.decl != nil {
		return in.instantiate(src.decl, src.scope)
	}
	return cloneEntity(base)
}

// cloneEntity copies an entity one level deep: member bindings are new,
// what they hold is shared.
func cloneEntity(v *Value) *Value {
	src := v.Entity()
	dup := &Entity{
		Name:    src.Name,
		Members: make(map[string]*Value, len(src.Members)),
		Order:   slices.Clone(src.Order),
		Base:    src.Base,
	}
	for k, m := range src.Members {
		dup.Members[k] = m.Clone()
	}
	out := v.Clone()
	out.Value = dup
	return out
}

// --- Match ---

func (in *Interpreter) evalMatch(m *decl.MatchExpr, ctx *Context) *Value {
	subject := in.Eval(m.Subject, ctx)
	for _, arm := range m.Arms {
		frame := ctx.Push(arm.OwnScope())
		matched := in.destructure(arm.Pattern, subject, frame, func(id *Identifier, v *Value) {
			frame.Put(id.Name, v.Clone())
		})
		if matched {
			return in.Eval(arm.Body, frame)
		}
	}
	return UNIT
}

// --- Lock, async and safe ---

// evalLock serializes the body against every other evaluation of the same
// lock block. A fault in the body propagates once the lock is released.
func (in *Interpreter) evalLock(l *decl.LockBlock, ctx *Context) *Value {
	if mu := in.lockSite(l); !in.held[mu] {
		mu.Lock()
		in.held[mu] = true
		defer func() {
			delete(in.held, mu)
			mu.Unlock()
		}()
	}
	return in.evalBody(l.Body.Stmts, ctx.Push(l.Body.OwnScope()))
}

// lockSite finds the mutex of a lock block in the arena of the unit that
// declares it, which need not be the unit being run.
func (in *Interpreter) lockSite(l *decl.LockBlock) *sync.Mutex {
	root := unitRoot(l)
	if p := in.program; p.Locks != nil && Node(p.Unit.Script) == root {
		return p.Locks.Site(l.ID())
	}
	return in.rt.arena(root).Site(l.ID())
}

// evalAsync submits the body to the executor and returns its future right
// away.
func (in *Interpreter) evalAsync(a *decl.AsyncBlock, ctx *Context) *Value {
	exec := in.rt.executor()
	fut := NewFuture(exec)
	child := in.fork()
	if t := in.rt.Tracer; t != nil {
		child.traceParent = t.Enter(in.traceParent, EventGo, "async", a).ID
	}
	err := exec.Submit(in.ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				fut.fail(asError(r))
			}
		}()
		fut.resolve(bodyValue(child.evalBody(a.Body.Stmts, ctx.Push(a.Body.OwnScope()))))
	})
	if err != nil {
		fut.fail(err)
	}
	return &Value{Type: a.Type(), Context: ctx, Value: fut}
}

func (in *Interpreter) futureMember(m *decl.MemberAccess, fut *Future) *Value {
	switch m.Member {
	case "await":
		return NativeValue("await", 0, decl.UnknownType, func(_ *Value, _ []*Value) *Value {
			return in.await(m, fut)
		})
	case "then":
		return NativeValue("then", 1, decl.UnitType, func(_ *Value, args []*Value) *Value {
			cb, child := arg(args, 0), in.fork()
			fut.Then(func(v *Value, err error) { child.continuation(m, cb, v, err) })
			return UNIT
		})
	}
	raise(CodeFieldNotFound, m, "future has no member %q", m.Member)
	return nil
}

// await blocks until the future settles. A failed body becomes a fault in
// the awaiting evaluation, keeping the original code when there is one.
func (in *Interpreter) await(at Node, fut *Future) *Value {
	if t := in.rt.Tracer; t != nil {
		t.Enter(in.traceParent, EventWait, "await", at)
	}
	v, err := fut.Await(in.ctx)
	if err == nil {
		return v
	}
	var fault *Fault
	var internal *InternalError
	switch {
	case errors.As(err, &fault):
		panic(NewFault(fault.Code, at, "%s", fault.Message))
	case errors.As(err, &internal):
		panic(internal)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		panic(err)
	}
	raise(CodeUnknownError, at, "async block failed: %v", err)
	return nil
}

func (in *Interpreter) continuation(at Node, cb, v *Value, err error) {
	if err != nil {
		in.Logger.Warn("%s: async block failed, continuation skipped: %v", at.Pos(), err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			in.Logger.Error("%s: continuation failed: %v", at.Pos(), asError(r))
		}
	}()
	in.call(at, cb, nil, []*Value{v})
}

// evalSafe runs the body and reports a fault through the result entity
// instead of unwinding. Internal errors are not faults and pass through.
func (in *Interpreter) evalSafe(s *decl.SafeBlock, ctx *Context) *Value {
	result, code := in.trySafe(s, ctx)
	get := NativeValue("get", 0, result.Type, func(_ *Value, _ []*Value) *Value { return result })
	ent := &Entity{
		Name: "Safe",
		Members: map[string]*Value{
			"get":        get,
			"panic_code": NumberValue(code),
		},
		Order: []string{"get", "panic_code"},
	}
	return &Value{Type: s.Type(), Context: ctx, Value: ent}
}

func (in *Interpreter) trySafe(s *decl.SafeBlock, ctx *Context) (result *Value, code int) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*Fault)
			if !ok {
				panic(r)
			}
			in.Logger.Debug("safe block at %s caught %v", s.Pos(), f)
			result, code = NULL, f.Code
		}
	}()
	return bodyValue(in.evalBody(s.Body.Stmts, ctx.Push(s.Body.OwnScope()))), 0
}

func (in *Interpreter) evalPanic(p *decl.PanicExpr, ctx *Context) *Value {
	v := in.Eval(p.Code, ctx)
	code, ok := v.Int()
	if !ok {
		raise(CodeBadOperand, p.Code, "panic code must be an integer, found %s", v)
	}
	msg := ""
	if p.Message != nil {
		msg = in.Eval(p.Message, ctx).String()
	}
	panic(&Fault{Code: int(code), Message: msg, Node: p})
}

// --- Host objects ---

func (in *Interpreter) host(at Node) HostBridge {
	if in.rt.Host == nil {
		panic(&InternalError{Node: at, Err: ErrNoHost})
	}
	return in.rt.Host
}

func (in *Interpreter) evalExternalRef(x *decl.ExternalRef) *Value {
	if v, ok := in.host(x).Resolve(x.Name); ok {
		return v
	}
	raise(CodeVarNotFound, x, "host has no binding %q", x.Name)
	return nil
}

func (in *Interpreter) evalExternalNew(x *decl.ExternalNew, ctx *Context) *Value {
	host := in.host(x)
	fields := map[string]*Value{}
	if x.Body != nil {
		maps.Copy(fields, in.Eval(x.Body, ctx).Entity().Members)
	}
	v, err := host.Instantiate(x.Class, fields)
	if err != nil {
		raise(CodeHostFailure, x, "%v", err)
	}
	return v
}
