package decl

import "fmt"

// Builders used by the JSON decoder and by tests to assemble trees without a
// parser. NewScript finalizes the tree it returns.

func NewScript(stmts ...Node) *Script {
	s := &Script{Stmts: stmts}
	Finalize(s)
	return s
}

func Num(v any) *Literal    { return &Literal{Kind: LitNumber, Raw: fmt.Sprint(v)} }
func Str(s string) *Literal { return &Literal{Kind: LitString, Raw: s} }
func Null() *Literal        { return &Literal{Kind: LitNull, Raw: "null"} }
func Unit() *Literal        { return &Literal{Kind: LitUnit, Raw: "()"} }
func Ident(name string) *Identifier {
	return &Identifier{Name: name}
}

func Bool(b bool) *Literal {
	return &Literal{Kind: LitBool, Raw: fmt.Sprint(b)}
}

func Bin(left Node, op string, right Node) *BinaryExpr {
	return &BinaryExpr{Left: left, Operator: op, Right: right}
}

func Unary(op string, operand Node) *UnaryExpr {
	return &UnaryExpr{Operator: op, Operand: operand}
}

func Postfix(operand Node, op string) *UnaryExpr {
	return &UnaryExpr{Operator: op, Operand: operand, Postfix: true}
}

func Ternary(cond, then, els Node) *TernaryExpr {
	return &TernaryExpr{Cond: cond, Then: then, Else: els}
}

func Assign(target any, value Node) *AssignExpr {
	return &AssignExpr{Target: asTarget(target), Operator: "=", Value: value}
}

func AssignOp(target any, op string, value Node) *AssignExpr {
	return &AssignExpr{Target: asTarget(target), Operator: op, Value: value}
}

// Let declares an immutable binding, Var a mutable one. target is a name or
// a pattern node.
func Let(target any, value Node) *VarDecl {
	return &VarDecl{Target: asTarget(target), Value: value}
}

func Var(target any, value Node) *VarDecl {
	return &VarDecl{Mutable: true, Target: asTarget(target), Value: value}
}

// Unpack builds a destructuring pattern; string items become identifiers.
func Unpack(items ...any) *TupleUnpacker {
	out := &TupleUnpacker{}
	for _, item := range items {
		out.Items = append(out.Items, asTarget(item))
	}
	return out
}

func Rest(name string) *Ellipsis { return &Ellipsis{Name: name} }

func Lambda(params []string, body Node) *FuncDecl {
	return Func("", params, body)
}

func Func(name string, params []string, body Node) *FuncDecl {
	out := &FuncDecl{Name: name, Body: body}
	for _, p := range params {
		out.Params = append(out.Params, Ident(p))
	}
	return out
}

func Call(callee any, args ...Node) *CallExpr {
	return &CallExpr{Callee: asTarget(callee), Args: args}
}

func Member(host any, name string) *MemberAccess {
	return &MemberAccess{Host: asTarget(host), Member: name}
}

func Index(host any, index Node) *IndexAccess {
	return &IndexAccess{Host: asTarget(host), Index: index}
}

func Entity(name string, members ...Node) *EntityDecl {
	return &EntityDecl{Name: name, Members: members}
}

func Extends(name string, base any, members ...Node) *EntityDecl {
	return &EntityDecl{Name: name, Base: asTarget(base), Members: members}
}

func Tuple(items ...Node) *TupleDecl { return &TupleDecl{Items: items} }
func Array(items ...Node) *ArrayDecl { return &ArrayDecl{Items: items} }

// Map takes alternating keys and values.
func Map(kv ...Node) *MapDecl {
	out := &MapDecl{}
	for i := 0; i+1 < len(kv); i += 2 {
		out.Keys = append(out.Keys, kv[i])
		out.Values = append(out.Values, kv[i+1])
	}
	return out
}

func Match(subject Node, arms ...*MatchArm) *MatchExpr {
	return &MatchExpr{Subject: subject, Arms: arms}
}

func Arm(pattern any, body Node) *MatchArm {
	return &MatchArm{Pattern: asTarget(pattern), Body: body}
}

func Blk(stmts ...Node) *Block          { return &Block{Stmts: stmts} }
func Async(stmts ...Node) *AsyncBlock   { return &AsyncBlock{Body: Blk(stmts...)} }
func Lock(stmts ...Node) *LockBlock     { return &LockBlock{Body: Blk(stmts...)} }
func Safe(stmts ...Node) *SafeBlock     { return &SafeBlock{Body: Blk(stmts...)} }
func Ret(value Node) *ReturnStmt        { return &ReturnStmt{Value: value} }
func Break() *LoopControl               { return &LoopControl{Break: true} }
func Continue() *LoopControl            { return &LoopControl{} }
func Ext(name string) *ExternalRef      { return &ExternalRef{Name: name} }
func While(cond Node, body *Block) *WhileStmt {
	return &WhileStmt{Cond: cond, Body: body}
}

func Panic(code, message Node) *PanicExpr {
	return &PanicExpr{Code: code, Message: message}
}

func NewExt(class string, fields ...Node) *ExternalNew {
	return &ExternalNew{Class: class, Body: Entity("", fields...)}
}

func If(cond Node, then *Block, els Node) *IfStmt {
	return &IfStmt{Cond: cond, Then: then, Else: els}
}

// Each iterates iterable; index may be empty.
func Each(item, index string, iterable Node, body *Block) *EachStmt {
	out := &EachStmt{Item: Ident(item), Iterable: iterable, Body: body}
	if index != "" {
		out.Index = Ident(index)
	}
	return out
}

func For(init, cond, step Node, body *Block) *ForStmt {
	return &ForStmt{Init: init, Cond: cond, Step: step, Body: body}
}

func Do(body *Block, cond Node) *DoStmt {
	return &DoStmt{Body: body, Cond: cond}
}

func Import(source string, names ...string) *ImportStmt {
	out := &ImportStmt{Source: source}
	for _, n := range names {
		out.Names = append(out.Names, Ident(n))
	}
	return out
}

func ImportAll(source string) *ImportStmt {
	return &ImportStmt{Source: source, Star: true}
}

func Export(names ...string) *ExportStmt {
	out := &ExportStmt{}
	for _, n := range names {
		out.Names = append(out.Names, Ident(n))
	}
	return out
}

func asTarget(v any) Node {
	switch t := v.(type) {
	case string:
		return Ident(t)
	case Node:
		return t
	case nil:
		return nil
	}
	panic(fmt.Sprintf("cannot use %T as a node", v))
}
