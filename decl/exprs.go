package decl

import (
	"fmt"
	"strings"
)

// Identifier is a name reference. In declaration and pattern positions it
// is the name being bound; "_" binds nothing.
type Identifier struct {
	NodeInfo
	Name string
}

func (i *Identifier) String() string { return i.Name }

// IsDiscard reports whether this is the "_" placeholder.
func (i *Identifier) IsDiscard() bool { return i.Name == "_" }

type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
	LitBool
	LitNull
	LitUnit
)

func (k LiteralKind) String() string {
	switch k {
	case LitNumber:
		return "number"
	case LitString:
		return "string"
	case LitBool:
		return "bool"
	case LitNull:
		return "null"
	case LitUnit:
		return "unit"
	}
	return "unknown"
}

// Literal keeps the lexeme; conversion into a runtime value happens in the
// interpreter.
type Literal struct {
	NodeInfo
	Kind LiteralKind
	Raw  string
}

func (l *Literal) String() string {
	switch l.Kind {
	case LitString:
		return fmt.Sprintf("%q", l.Raw)
	case LitNull:
		return "null"
	case LitUnit:
		return "()"
	}
	return l.Raw
}

// BinaryExpr represents `left operator right`
type BinaryExpr struct {
	NodeInfo
	Left     Node
	Operator string // "+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=", "&&", "||"
	Right    Node
}

func (b *BinaryExpr) Children() []Node { return nonNil(b.Left, b.Right) }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}

// IsArithmetic is true for + - * / %
func (b *BinaryExpr) IsArithmetic() bool {
	switch b.Operator {
	case "+", "-", "*", "/", "%":
		return true
	}
	return false
}

// UnaryExpr covers "-", "!" and the increment operators, which may be
// prefix or postfix.
type UnaryExpr struct {
	NodeInfo
	Operator string
	Operand  Node
	Postfix  bool
}

func (u *UnaryExpr) Children() []Node { return nonNil(u.Operand) }
func (u *UnaryExpr) String() string {
	if u.Postfix {
		return fmt.Sprintf("(%s%s)", u.Operand, u.Operator)
	}
	return fmt.Sprintf("(%s%s)", u.Operator, u.Operand)
}

type TernaryExpr struct {
	NodeInfo
	Cond Node
	Then Node
	Else Node
}

func (t *TernaryExpr) Children() []Node { return nonNil(t.Cond, t.Then, t.Else) }
func (t *TernaryExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", t.Cond, t.Then, t.Else)
}

// AssignExpr assigns to an identifier, a member, an index or, when the
// target is a TupleUnpacker, destructures.
type AssignExpr struct {
	NodeInfo
	Target   Node
	Operator string // "=", "+=", "-=", "*=", "/=", "%="
	Value    Node
}

func (a *AssignExpr) Children() []Node { return nonNil(a.Target, a.Value) }
func (a *AssignExpr) String() string {
	return fmt.Sprintf("%s %s %s", a.Target, a.Operator, a.Value)
}

// BinaryOperator returns the arithmetic operator of a compound assignment,
// or "" for plain assignment.
func (a *AssignExpr) BinaryOperator() string {
	if a.Operator == "=" || a.Operator == "" {
		return ""
	}
	return strings.TrimSuffix(a.Operator, "=")
}

// TupleUnpacker is a destructuring pattern. Items are identifiers, literals
// (in match arms), nested unpackers or a single Ellipsis.
type TupleUnpacker struct {
	NodeInfo
	Items []Node
}

func (t *TupleUnpacker) Children() []Node { return t.Items }
func (t *TupleUnpacker) String() string   { return "(" + joinNodes(t.Items, ", ") + ")" }

// EllipsisIndex returns the position of the ellipsis marker or -1.
func (t *TupleUnpacker) EllipsisIndex() int {
	for i, item := range t.Items {
		if _, ok := item.(*Ellipsis); ok {
			return i
		}
	}
	return -1
}

// Ellipsis absorbs the positions a pattern does not name.
type Ellipsis struct {
	NodeInfo
	Name string
}

func (e *Ellipsis) String() string { return ".." + e.Name }

// FuncDecl is a named function or a lambda. Body is either a *Block or a
// single expression.
type FuncDecl struct {
	NodeInfo
	Name   string
	Params []*Identifier
	Body   Node
}

func (f *FuncDecl) Children() []Node {
	out := make([]Node, 0, len(f.Params)+1)
	for _, p := range f.Params {
		out = append(out, p)
	}
	return append(out, nonNil(f.Body)...)
}

func (f *FuncDecl) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Name
	}
	name := f.Name
	if name == "" {
		name = "func"
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
}

// IsExpressionBodied is true for lambdas of the form `(x) -> expr`.
func (f *FuncDecl) IsExpressionBodied() bool {
	_, ok := f.Body.(*Block)
	return !ok
}

type CallExpr struct {
	NodeInfo
	Callee Node
	Args   []Node
}

func (c *CallExpr) Children() []Node { return append(nonNil(c.Callee), c.Args...) }
func (c *CallExpr) String() string {
	return fmt.Sprintf("%s(%s)", c.Callee, joinNodes(c.Args, ", "))
}

type MemberAccess struct {
	NodeInfo
	Host   Node
	Member string
}

func (m *MemberAccess) Children() []Node { return nonNil(m.Host) }
func (m *MemberAccess) String() string   { return fmt.Sprintf("%s.%s", m.Host, m.Member) }

type IndexAccess struct {
	NodeInfo
	Host  Node
	Index Node
}

func (i *IndexAccess) Children() []Node { return nonNil(i.Host, i.Index) }
func (i *IndexAccess) String() string   { return fmt.Sprintf("%s[%s]", i.Host, i.Index) }

// EntityDecl declares a structural object. When Base is set the entity
// extends the value Base evaluates to. Members are VarDecls and FuncDecls.
type EntityDecl struct {
	NodeInfo
	Name    string
	Base    Node
	Members []Node
}

func (e *EntityDecl) Children() []Node { return append(nonNil(e.Base), e.Members...) }
func (e *EntityDecl) String() string {
	name := e.Name
	if name == "" {
		name = "entity"
	}
	if e.Base != nil {
		return fmt.Sprintf("%s extends %s{...}", name, e.Base)
	}
	return name + "{...}"
}

type TupleDecl struct {
	NodeInfo
	Items []Node
}

func (t *TupleDecl) Children() []Node { return t.Items }
func (t *TupleDecl) String() string   { return "(" + joinNodes(t.Items, ", ") + ")" }

type ArrayDecl struct {
	NodeInfo
	Items []Node
}

func (a *ArrayDecl) Children() []Node { return a.Items }
func (a *ArrayDecl) String() string   { return "[" + joinNodes(a.Items, ", ") + "]" }

// MapDecl is a map literal, Keys[i] maps to Values[i].
type MapDecl struct {
	NodeInfo
	Keys   []Node
	Values []Node
}

func (m *MapDecl) Children() []Node {
	out := make([]Node, 0, 2*len(m.Keys))
	for i := range m.Keys {
		out = append(out, m.Keys[i], m.Values[i])
	}
	return out
}

func (m *MapDecl) String() string {
	parts := make([]string, len(m.Keys))
	for i := range m.Keys {
		parts[i] = fmt.Sprintf("%s: %s", m.Keys[i], m.Values[i])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type MatchExpr struct {
	NodeInfo
	Subject Node
	Arms    []*MatchArm
}

func (m *MatchExpr) Children() []Node {
	out := nonNil(m.Subject)
	for _, a := range m.Arms {
		out = append(out, a)
	}
	return out
}

func (m *MatchExpr) String() string { return fmt.Sprintf("match %s {%d arms}", m.Subject, len(m.Arms)) }

// MatchArm opens its own scope; names bound by Pattern are visible in Body.
type MatchArm struct {
	NodeInfo
	Pattern Node
	Body    Node
}

func (a *MatchArm) Children() []Node { return nonNil(a.Pattern, a.Body) }
func (a *MatchArm) String() string   { return fmt.Sprintf("| %s => %s", a.Pattern, a.Body) }

// AsyncBlock runs Body on the worker pool and evaluates to a future.
type AsyncBlock struct {
	NodeInfo
	Body *Block
}

func (a *AsyncBlock) Children() []Node { return nonNil(a.Body) }
func (a *AsyncBlock) String() string   { return "async {...}" }

// LockBlock serializes every evaluation of the same block site.
type LockBlock struct {
	NodeInfo
	Body *Block
}

func (l *LockBlock) Children() []Node { return nonNil(l.Body) }
func (l *LockBlock) String() string   { return "lock {...}" }

// SafeBlock converts panics raised by Body into a result entity.
type SafeBlock struct {
	NodeInfo
	Body *Block
}

func (s *SafeBlock) Children() []Node { return nonNil(s.Body) }
func (s *SafeBlock) String() string   { return "safe {...}" }

// PanicExpr raises a runtime fault with a user code.
type PanicExpr struct {
	NodeInfo
	Code    Node
	Message Node
}

func (p *PanicExpr) Children() []Node { return nonNil(p.Code, p.Message) }
func (p *PanicExpr) String() string   { return fmt.Sprintf("panic(%s, %s)", p.Code, p.Message) }

// ExternalRef names a host-provided class or callable.
type ExternalRef struct {
	NodeInfo
	Name string
}

func (e *ExternalRef) String() string { return "ext::" + e.Name }

// ExternalNew instantiates a host class, mapping the fields of Body onto it.
type ExternalNew struct {
	NodeInfo
	Class string
	Body  *EntityDecl
}

func (e *ExternalNew) Children() []Node { return nonNil(e.Body) }
func (e *ExternalNew) String() string   { return fmt.Sprintf("new ext::%s{...}", e.Class) }
