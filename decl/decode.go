package decl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrUnknownNodeKind = errors.New("unknown node kind")

// rawNode is the on-disk form of a node. Every kind uses a subset of the
// fields.
type rawNode struct {
	Kind string `json:"kind"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`

	Name    string   `json:"name,omitempty"`
	Raw     string   `json:"raw,omitempty"`
	Op      string   `json:"op,omitempty"`
	Postfix bool     `json:"postfix,omitempty"`
	Mutable bool     `json:"mutable,omitempty"`
	Star    bool     `json:"star,omitempty"`
	Source  string   `json:"source,omitempty"`
	Class   string   `json:"class,omitempty"`
	Item    string   `json:"item,omitempty"`
	Idx     string   `json:"idx,omitempty"`
	Params  []string `json:"params,omitempty"`
	Names   []string `json:"names,omitempty"`

	Left     *rawNode `json:"left,omitempty"`
	Right    *rawNode `json:"right,omitempty"`
	Operand  *rawNode `json:"operand,omitempty"`
	Cond     *rawNode `json:"cond,omitempty"`
	Then     *rawNode `json:"then,omitempty"`
	Else     *rawNode `json:"else,omitempty"`
	Target   *rawNode `json:"target,omitempty"`
	Value    *rawNode `json:"value,omitempty"`
	Body     *rawNode `json:"body,omitempty"`
	Callee   *rawNode `json:"callee,omitempty"`
	Host     *rawNode `json:"host,omitempty"`
	Index    *rawNode `json:"index,omitempty"`
	Base     *rawNode `json:"base,omitempty"`
	Subject  *rawNode `json:"subject,omitempty"`
	Pattern  *rawNode `json:"pattern,omitempty"`
	Code     *rawNode `json:"code,omitempty"`
	Message  *rawNode `json:"message,omitempty"`
	Iterable *rawNode `json:"iterable,omitempty"`
	Init     *rawNode `json:"init,omitempty"`
	Step     *rawNode `json:"step,omitempty"`

	Stmts   []*rawNode `json:"stmts,omitempty"`
	Items   []*rawNode `json:"items,omitempty"`
	Args    []*rawNode `json:"args,omitempty"`
	Members []*rawNode `json:"members,omitempty"`
	Keys    []*rawNode `json:"keys,omitempty"`
	Values  []*rawNode `json:"values,omitempty"`
	Arms    []*rawNode `json:"arms,omitempty"`
}

// DecodeScript reads a JSON encoded unit and returns the finalized tree.
func DecodeScript(r io.Reader) (*Script, error) {
	var raw rawNode
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding unit: %w", err)
	}
	if raw.Kind != "script" {
		return nil, fmt.Errorf("expected a script at the root, found %q", raw.Kind)
	}
	d := &decoder{}
	node := d.node(&raw)
	if d.err != nil {
		return nil, d.err
	}
	script := node.(*Script)
	Finalize(script)
	return script, nil
}

type decoder struct {
	err error
}

func (d *decoder) fail(r *rawNode, format string, args ...any) Node {
	if d.err == nil {
		d.err = fmt.Errorf("%d:%d: %w", r.Line, r.Col, fmt.Errorf(format, args...))
	}
	return Null()
}

func (d *decoder) nodes(rs []*rawNode) []Node {
	out := make([]Node, 0, len(rs))
	for _, r := range rs {
		out = append(out, d.node(r))
	}
	return out
}

func (d *decoder) opt(r *rawNode) Node {
	if r == nil {
		return nil
	}
	return d.node(r)
}

func (d *decoder) block(r *rawNode) *Block {
	if r == nil {
		return nil
	}
	if b, ok := d.node(r).(*Block); ok {
		return b
	}
	d.fail(r, "expected a block, found %q", r.Kind)
	return Blk()
}

func (d *decoder) idents(names []string) []*Identifier {
	out := make([]*Identifier, len(names))
	for i, n := range names {
		out[i] = Ident(n)
	}
	return out
}

func (d *decoder) node(r *rawNode) Node {
	if r == nil {
		return d.fail(&rawNode{}, "missing node")
	}
	var out Node
	switch r.Kind {
	case "script":
		out = &Script{Stmts: d.nodes(r.Stmts)}
	case "block":
		out = Blk(d.nodes(r.Stmts)...)
	case "ident":
		out = Ident(r.Name)
	case "num":
		out = &Literal{Kind: LitNumber, Raw: r.Raw}
	case "str":
		out = Str(r.Raw)
	case "bool":
		out = &Literal{Kind: LitBool, Raw: r.Raw}
	case "null":
		out = Null()
	case "unit":
		out = Unit()
	case "binary":
		out = Bin(d.node(r.Left), r.Op, d.node(r.Right))
	case "unary":
		out = &UnaryExpr{Operator: r.Op, Operand: d.node(r.Operand), Postfix: r.Postfix}
	case "ternary":
		out = Ternary(d.node(r.Cond), d.node(r.Then), d.node(r.Else))
	case "assign":
		op := r.Op
		if op == "" {
			op = "="
		}
		out = AssignOp(d.node(r.Target), op, d.node(r.Value))
	case "let", "var":
		out = &VarDecl{Mutable: r.Kind == "var" || r.Mutable, Target: d.node(r.Target), Value: d.opt(r.Value)}
	case "unpack":
		out = &TupleUnpacker{Items: d.nodes(r.Items)}
	case "rest":
		out = Rest(r.Name)
	case "func":
		out = Func(r.Name, r.Params, d.node(r.Body))
	case "call":
		out = &CallExpr{Callee: d.node(r.Callee), Args: d.nodes(r.Args)}
	case "member":
		out = Member(d.node(r.Host), r.Name)
	case "index":
		out = Index(d.node(r.Host), d.node(r.Index))
	case "entity":
		out = &EntityDecl{Name: r.Name, Base: d.opt(r.Base), Members: d.nodes(r.Members)}
	case "tuple":
		out = Tuple(d.nodes(r.Items)...)
	case "array":
		out = Array(d.nodes(r.Items)...)
	case "map":
		if len(r.Keys) != len(r.Values) {
			return d.fail(r, "map has %d keys and %d values", len(r.Keys), len(r.Values))
		}
		out = &MapDecl{Keys: d.nodes(r.Keys), Values: d.nodes(r.Values)}
	case "match":
		m := &MatchExpr{Subject: d.node(r.Subject)}
		for _, a := range r.Arms {
			arm := &MatchArm{Pattern: d.node(a.Pattern), Body: d.node(a.Body)}
			arm.At(a.Line, a.Col)
			m.Arms = append(m.Arms, arm)
		}
		out = m
	case "async":
		out = &AsyncBlock{Body: d.block(r.Body)}
	case "lock":
		out = &LockBlock{Body: d.block(r.Body)}
	case "safe":
		out = &SafeBlock{Body: d.block(r.Body)}
	case "panic":
		out = Panic(d.node(r.Code), d.opt(r.Message))
	case "ext":
		out = Ext(r.Name)
	case "new":
		out = &ExternalNew{Class: r.Class, Body: Entity("", d.nodes(r.Members)...)}
	case "return":
		out = Ret(d.opt(r.Value))
	case "if":
		out = If(d.node(r.Cond), d.block(r.Then), d.opt(r.Else))
	case "each":
		out = Each(r.Item, r.Idx, d.node(r.Iterable), d.block(r.Body))
	case "for":
		out = For(d.opt(r.Init), d.opt(r.Cond), d.opt(r.Step), d.block(r.Body))
	case "while":
		out = While(d.node(r.Cond), d.block(r.Body))
	case "do":
		out = Do(d.block(r.Body), d.node(r.Cond))
	case "break":
		out = Break()
	case "continue":
		out = Continue()
	case "import":
		out = &ImportStmt{Source: r.Source, Names: d.idents(r.Names), Star: r.Star}
	case "export":
		out = &ExportStmt{Names: d.idents(r.Names)}
	default:
		return d.fail(r, "%w: %q", ErrUnknownNodeKind, r.Kind)
	}
	out.info().Loc = Location{r.Line, r.Col}
	return out
}
