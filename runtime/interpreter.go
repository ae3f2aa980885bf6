package runtime

import (
	"context"
	"slices"
	"sync"

	"github.com/panyam/ohscript/core"
	"github.com/panyam/ohscript/decl"
)

// Interpreter walks the analyzed tree of one program. An interpreter
// belongs to a single goroutine; async bodies and continuations run on
// forks of it.
type Interpreter struct {
	rt      *Runtime
	program *Program
	ctx     context.Context
	Logger  core.Logger

	// lock sites held by this evaluation, so nested re-entry does not block
	held map[*sync.Mutex]bool

	// names exported by the unit's top level
	exported []string

	// trace event calls made from here nest under
	traceParent int
}

func newInterpreter(rt *Runtime, p *Program, ctx context.Context) *Interpreter {
	return &Interpreter{
		rt:      rt,
		program: p,
		ctx:     ctx,
		Logger:  rt.Logger,
		held:    map[*sync.Mutex]bool{},
	}
}

func (in *Interpreter) fork() *Interpreter {
	return &Interpreter{
		rt:          in.rt,
		program:     in.program,
		ctx:         in.ctx,
		Logger:      in.Logger,
		held:        map[*sync.Mutex]bool{},
		traceParent: in.traceParent,
	}
}

// run evaluates the program's script and returns its value along with the
// top level frame.
func (in *Interpreter) run() (out *Value, frame *Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, asError(r)
		}
	}()
	script := in.program.Unit.Script
	frame = NewContext().Push(script.OwnScope())
	out = bodyValue(in.evalBody(script.Stmts, frame))
	return out, frame, nil
}

// Eval evaluates a single node in ctx.
func (in *Interpreter) Eval(node Node, ctx *Context) *Value {
	switch n := node.(type) {
	// --- Statement Nodes ---
	case *decl.Script:
		return bodyValue(in.evalBody(n.Stmts, ctx.Push(n.OwnScope())))
	case *decl.Block:
		return in.evalBlock(n, ctx)
	case *decl.VarDecl:
		return in.evalVarDecl(n, ctx)
	case *decl.ReturnStmt:
		return in.evalReturn(n, ctx)
	case *decl.IfStmt:
		return in.evalIf(n, ctx)
	case *decl.EachStmt:
		return in.evalEach(n, ctx)
	case *decl.ForStmt:
		return in.evalFor(n, ctx)
	case *decl.WhileStmt:
		return in.evalWhile(n, ctx)
	case *decl.DoStmt:
		return in.evalDo(n, ctx)
	case *decl.LoopControl:
		if n.Break {
			return BREAK
		}
		return CONTINUE
	case *decl.ImportStmt:
		return in.evalImport(n, ctx)
	case *decl.ExportStmt:
		return in.evalExport(n, ctx)

	// --- Expression Nodes ---
	case *decl.Literal:
		return in.evalLiteral(n)
	case *decl.Identifier:
		return in.evalIdentifier(n, ctx)
	case *decl.BinaryExpr:
		return in.evalBinary(n, ctx)
	case *decl.UnaryExpr:
		return in.evalUnary(n, ctx)
	case *decl.TernaryExpr:
		if in.Eval(n.Cond, ctx).Truthy() {
			return in.Eval(n.Then, ctx)
		}
		return in.Eval(n.Else, ctx)
	case *decl.AssignExpr:
		return in.evalAssign(n, ctx)
	case *decl.FuncDecl:
		return in.evalFuncDecl(n, ctx)
	case *decl.CallExpr:
		return in.evalCall(n, ctx)
	case *decl.MemberAccess:
		return in.evalMember(n, ctx)
	case *decl.IndexAccess:
		return in.evalIndex(n, ctx)
	case *decl.EntityDecl:
		return in.evalEntity(n, ctx)
	case *decl.TupleDecl:
		return &Value{Type: n.Type(), Context: ctx, Value: Tuple(in.evalItems(n.Items, ctx))}
	case *decl.ArrayDecl:
		return &Value{Type: n.Type(), Context: ctx, Value: &Array{Items: in.evalItems(n.Items, ctx)}}
	case *decl.MapDecl:
		return in.evalMap(n, ctx)
	case *decl.MatchExpr:
		return in.evalMatch(n, ctx)
	case *decl.AsyncBlock:
		return in.evalAsync(n, ctx)
	case *decl.LockBlock:
		return in.evalLock(n, ctx)
	case *decl.SafeBlock:
		return in.evalSafe(n, ctx)
	case *decl.PanicExpr:
		return in.evalPanic(n, ctx)
	case *decl.ExternalRef:
		return in.evalExternalRef(n)
	case *decl.ExternalNew:
		return in.evalExternalNew(n, ctx)
	}
	panic(&InternalError{Node: node, Err: ErrNotImplemented})
}

// --- Blocks ---

// evalBlock runs a statement block in its own frame. The result is the
// break, continue or pending return that stopped it, else IGNORE.
func (in *Interpreter) evalBlock(b *Block, ctx *Context) *Value {
	frame := ctx.Push(b.OwnScope())
	in.hoist(b.Stmts, frame)
	for _, s := range b.Stmts {
		if v := in.Eval(s, frame); s.Returnable() && isControl(v) {
			return v
		}
	}
	return IGNORE
}

// evalBody runs statements for their value: the control value that
// stopped them, else the last statement's value, else UNIT.
func (in *Interpreter) evalBody(stmts []Node, frame *Context) *Value {
	in.hoist(stmts, frame)
	out := UNIT
	for _, s := range stmts {
		v := in.Eval(s, frame)
		if s.Returnable() && isControl(v) {
			return v
		}
		out = v
	}
	if out.IsMarker() {
		out = UNIT
	}
	return out
}

// hoist binds named functions before the statements run so they can be
// called ahead of their declaration.
func (in *Interpreter) hoist(stmts []Node, frame *Context) {
	for _, s := range stmts {
		if f, ok := s.(*decl.FuncDecl); ok && f.Name != "" {
			frame.Put(f.Name, in.closure(f, frame))
		}
	}
}

func (in *Interpreter) evalVarDecl(v *decl.VarDecl, ctx *Context) *Value {
	value := NULL
	if v.Value != nil {
		value = in.Eval(v.Value, ctx)
		if isControl(value) {
			return value
		}
	}
	in.bind(v.Target, value, ctx, func(id *Identifier, item *Value) {
		ctx.Put(id.Name, item.Clone())
	})
	return DECLARED
}

func (in *Interpreter) evalReturn(r *decl.ReturnStmt, ctx *Context) *Value {
	if r.Value == nil {
		return returning(UNIT)
	}
	v := in.Eval(r.Value, ctx)
	if isControl(v) {
		return v
	}
	if v.IsMarker() {
		v = UNIT
	}
	return returning(v)
}

func (in *Interpreter) evalIf(s *decl.IfStmt, ctx *Context) *Value {
	if in.Eval(s.Cond, ctx).Truthy() {
		return in.evalBlock(s.Then, ctx)
	}
	if s.Else == nil {
		return IGNORE
	}
	if v := in.Eval(s.Else, ctx); v != DECLARED {
		return v
	}
	return IGNORE
}

// --- Loops ---

// iterate runs one loop body. done is set when the loop must stop, with
// out holding a return value to propagate or IGNORE after a break.
func (in *Interpreter) iterate(body *Block, frame *Context) (done bool, out *Value) {
	v := in.evalBlock(body, frame)
	switch v {
	case BREAK:
		return true, IGNORE
	case CONTINUE, IGNORE:
		return false, nil
	}
	return true, v
}

func (in *Interpreter) checkCancelled() {
	if err := in.ctx.Err(); err != nil {
		panic(err)
	}
}

func (in *Interpreter) evalEach(e *decl.EachStmt, ctx *Context) *Value {
	iter := in.Eval(e.Iterable, ctx)
	var items []*Value
	switch c := iter.Value.(type) {
	case *Array:
		items = slices.Clone(c.Items)
	case Tuple:
		items = c
	case string:
		for _, r := range c {
			items = append(items, StringValue(string(r)))
		}
	case Map:
		for _, k := range sortedKeys(c) {
			items = append(items, StringValue(k))
		}
	default:
		raise(CodeNotMapOrArray, e.Iterable, "cannot iterate over %s", iter)
	}
	for i, item := range items {
		in.checkCancelled()
		frame := ctx.Push(e.OwnScope())
		if !e.Item.IsDiscard() {
			frame.Put(e.Item.Name, item.Clone())
		}
		if e.Index != nil && !e.Index.IsDiscard() {
			frame.Put(e.Index.Name, NumberValue(i))
		}
		if done, out := in.iterate(e.Body, frame); done {
			return out
		}
	}
	return IGNORE
}

func (in *Interpreter) evalFor(f *decl.ForStmt, ctx *Context) *Value {
	frame := ctx.Push(f.OwnScope())
	if f.Init != nil {
		in.Eval(f.Init, frame)
	}
	for {
		in.checkCancelled()
		if f.Cond != nil && !in.Eval(f.Cond, frame).Truthy() {
			return IGNORE
		}
		if done, out := in.iterate(f.Body, frame); done {
			return out
		}
		if f.Step != nil {
			in.Eval(f.Step, frame)
		}
	}
}

func (in *Interpreter) evalWhile(w *decl.WhileStmt, ctx *Context) *Value {
	for in.Eval(w.Cond, ctx).Truthy() {
		in.checkCancelled()
		if done, out := in.iterate(w.Body, ctx); done {
			return out
		}
	}
	return IGNORE
}

func (in *Interpreter) evalDo(d *decl.DoStmt, ctx *Context) *Value {
	for {
		in.checkCancelled()
		if done, out := in.iterate(d.Body, ctx); done {
			return out
		}
		if !in.Eval(d.Cond, ctx).Truthy() {
			return IGNORE
		}
	}
}

// --- Units ---

func (in *Interpreter) evalImport(s *decl.ImportStmt, ctx *Context) *Value {
	exports, err := in.rt.exportsOf(in.ctx, s.Source)
	if err != nil {
		if f, ok := err.(*Fault); ok {
			panic(f)
		}
		panic(&InternalError{Node: s, Err: err})
	}
	if s.Star {
		for _, name := range sortedKeys(exports) {
			ctx.Put(name, exports[name].Clone())
		}
		return DECLARED
	}
	for _, id := range s.Names {
		v, ok := exports[id.Name]
		if !ok {
			raise(CodeVarNotFound, id, "%s does not export %q", s.Source, id.Name)
		}
		ctx.Put(id.Name, v.Clone())
	}
	return DECLARED
}

// Exports are resolved against the top level frame once the unit has run,
// so an export may precede the declaration it names.
func (in *Interpreter) evalExport(s *decl.ExportStmt, _ *Context) *Value {
	for _, id := range s.Names {
		if !slices.Contains(in.exported, id.Name) {
			in.exported = append(in.exported, id.Name)
		}
	}
	return DECLARED
}
