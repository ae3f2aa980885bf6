package decl

import (
	"fmt"
	"strings"
)

// Block is a braced statement list with its own scope.
type Block struct {
	NodeInfo
	Stmts []Node
}

func (b *Block) Children() []Node { return b.Stmts }
func (b *Block) String() string   { return fmt.Sprintf("{ %d stmts }", len(b.Stmts)) }

// VarDecl is `var target = value` (mutable) or `let target = value`.
// Target is an Identifier or a TupleUnpacker.
type VarDecl struct {
	NodeInfo
	Mutable bool
	Target  Node
	Value   Node
}

func (v *VarDecl) Children() []Node { return nonNil(v.Target, v.Value) }
func (v *VarDecl) String() string {
	kw := "let"
	if v.Mutable {
		kw = "var"
	}
	if v.Value == nil {
		return fmt.Sprintf("%s %s", kw, v.Target)
	}
	return fmt.Sprintf("%s %s = %s", kw, v.Target, v.Value)
}

// Names returns every identifier bound by the declaration.
func (v *VarDecl) Names() []*Identifier {
	return PatternNames(v.Target)
}

// PatternNames lists identifiers a pattern binds, skipping "_".
func PatternNames(pattern Node) (out []*Identifier) {
	switch p := pattern.(type) {
	case *Identifier:
		if !p.IsDiscard() {
			out = append(out, p)
		}
	case *TupleUnpacker:
		for _, item := range p.Items {
			out = append(out, PatternNames(item)...)
		}
	}
	return
}

type ReturnStmt struct {
	NodeInfo
	Value Node
}

func (r *ReturnStmt) Children() []Node { return nonNil(r.Value) }
func (r *ReturnStmt) String() string {
	if r.Value == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", r.Value)
}

// IfStmt branches; Else is nil, a *Block or another *IfStmt.
type IfStmt struct {
	NodeInfo
	Cond Node
	Then *Block
	Else Node
}

func (i *IfStmt) Children() []Node { return nonNil(i.Cond, i.Then, i.Else) }
func (i *IfStmt) String() string   { return fmt.Sprintf("if %s {...}", i.Cond) }

// EachStmt iterates `each item, index in iterable`.
type EachStmt struct {
	NodeInfo
	Item     *Identifier
	Index    *Identifier
	Iterable Node
	Body     *Block
}

func (e *EachStmt) Children() []Node { return nonNil(e.Item, e.Index, e.Iterable, e.Body) }
func (e *EachStmt) String() string {
	if e.Index != nil {
		return fmt.Sprintf("each %s, %s in %s", e.Item, e.Index, e.Iterable)
	}
	return fmt.Sprintf("each %s in %s", e.Item, e.Iterable)
}

type ForStmt struct {
	NodeInfo
	Init Node
	Cond Node
	Step Node
	Body *Block
}

func (f *ForStmt) Children() []Node { return nonNil(f.Init, f.Cond, f.Step, f.Body) }
func (f *ForStmt) String() string   { return fmt.Sprintf("for %s; %s; %s", f.Init, f.Cond, f.Step) }

type WhileStmt struct {
	NodeInfo
	Cond Node
	Body *Block
}

func (w *WhileStmt) Children() []Node { return nonNil(w.Cond, w.Body) }
func (w *WhileStmt) String() string   { return fmt.Sprintf("while %s", w.Cond) }

// DoStmt runs Body at least once.
type DoStmt struct {
	NodeInfo
	Body *Block
	Cond Node
}

func (d *DoStmt) Children() []Node { return nonNil(d.Body, d.Cond) }
func (d *DoStmt) String() string   { return fmt.Sprintf("do ... while %s", d.Cond) }

// LoopControl is break (Break == true) or continue.
type LoopControl struct {
	NodeInfo
	Break bool
}

func (l *LoopControl) String() string {
	if l.Break {
		return "break"
	}
	return "continue"
}

// ImportStmt binds exported names of another unit. Star imports every export.
type ImportStmt struct {
	NodeInfo
	Source string
	Names  []*Identifier
	Star   bool
}

func (i *ImportStmt) Children() []Node {
	out := make([]Node, len(i.Names))
	for n, id := range i.Names {
		out[n] = id
	}
	return out
}

func (i *ImportStmt) String() string {
	if i.Star {
		return fmt.Sprintf("import * from %s", i.Source)
	}
	names := make([]string, len(i.Names))
	for n, id := range i.Names {
		names[n] = id.Name
	}
	return fmt.Sprintf("import %s from %s", strings.Join(names, ", "), i.Source)
}

// ExportStmt publishes names declared at the top level of the unit.
type ExportStmt struct {
	NodeInfo
	Names []*Identifier
}

func (e *ExportStmt) Children() []Node {
	out := make([]Node, len(e.Names))
	for n, id := range e.Names {
		out[n] = id
	}
	return out
}

func (e *ExportStmt) String() string {
	names := make([]string, len(e.Names))
	for n, id := range e.Names {
		names[n] = id.Name
	}
	return "export " + strings.Join(names, ", ")
}
