package decl

import (
	"fmt"
	"strings"

	gfn "github.com/panyam/goutils/fn"
)

// NodeID is a stable, per-unit identifier assigned to every node by Finalize.
type NodeID int

// ScopeID names a lexical scope. Zero means "no scope".
type ScopeID int

type Location struct {
	Line int
	Col  int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Col)
}

// --- Interfaces ---

// Node represents any node in the Abstract Syntax Tree.
type Node interface {
	ID() NodeID
	Pos() Location

	// Scope the node is evaluated in.
	Scope() ScopeID

	// Scope opened by this node for its children, 0 if it opens none.
	OwnScope() ScopeID

	Parent() Node
	Children() []Node

	// Set when the node is, or contains, a return/break/continue that is
	// not hidden behind a function or async/safe boundary.
	Returnable() bool

	Type() *Type
	SetType(*Type)

	String() string

	info() *NodeInfo
}

// --- Base Struct ---

// NodeInfo is embedded by all nodes and holds what Finalize computes.
type NodeInfo struct {
	Loc        Location
	nodeID     NodeID
	scope      ScopeID
	ownScope   ScopeID
	parent     Node
	returnable bool
	typ        *Type
}

func (n *NodeInfo) ID() NodeID         { return n.nodeID }
func (n *NodeInfo) Pos() Location      { return n.Loc }
func (n *NodeInfo) Scope() ScopeID     { return n.scope }
func (n *NodeInfo) OwnScope() ScopeID  { return n.ownScope }
func (n *NodeInfo) Parent() Node       { return n.parent }
func (n *NodeInfo) Returnable() bool   { return n.returnable }
func (n *NodeInfo) info() *NodeInfo    { return n }
func (n *NodeInfo) SetType(t *Type)    { n.typ = t }
func (n *NodeInfo) Children() []Node   { return nil }
func (n *NodeInfo) String() string     { return "{Node}" }
func (n *NodeInfo) At(line, col int)   { n.Loc = Location{line, col} }

// Type returns the inferred type, Unknown until the analyzer has run.
func (n *NodeInfo) Type() *Type {
	if n.typ == nil {
		return UnknownType
	}
	return n.typ
}

// Script is the root of a compilation unit.
type Script struct {
	NodeInfo
	Stmts []Node
}

func (s *Script) Children() []Node { return s.Stmts }
func (s *Script) String() string   { return fmt.Sprintf("script(%d stmts)", len(s.Stmts)) }

// Walk visits node and its descendants in pre-order. Returning false from
// visit skips the children of that node.
func Walk(node Node, visit func(Node) bool) {
	if node == nil || !visit(node) {
		return
	}
	for _, c := range node.Children() {
		Walk(c, visit)
	}
}

// Enclosing returns the nearest ancestor of node that satisfies match.
func Enclosing(node Node, match func(Node) bool) Node {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if match(p) {
			return p
		}
	}
	return nil
}

func joinNodes(nodes []Node, sep string) string {
	return strings.Join(gfn.Map(nodes, func(n Node) string { return n.String() }), sep)
}

// nonNil drops nil entries so optional children can be listed inline.
func nonNil(nodes ...Node) (out []Node) {
	for _, n := range nodes {
		if n != nil && !isNilNode(n) {
			out = append(out, n)
		}
	}
	return
}

func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Block:
		return v == nil
	case *Identifier:
		return v == nil
	case *EntityDecl:
		return v == nil
	}
	return false
}
