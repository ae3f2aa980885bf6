package decl

// Finalize links parents, numbers nodes and scopes, and marks returnable
// subtrees. Parsers call it once on a freshly built tree; calling it again
// renumbers from scratch.
func Finalize(root Node) {
	f := &finalizer{}
	f.visit(root, nil, 0)
}

type finalizer struct {
	nextID    NodeID
	nextScope ScopeID
}

func (f *finalizer) visit(n Node, parent Node, scope ScopeID) bool {
	inf := n.info()
	f.nextID++
	inf.nodeID = f.nextID
	inf.parent = parent
	inf.scope = scope
	inf.ownScope = 0

	inner := scope
	if opensScope(n) {
		f.nextScope++
		inf.ownScope = f.nextScope
		inner = inf.ownScope
	}

	returnable := false
	switch n.(type) {
	case *ReturnStmt, *LoopControl:
		returnable = true
	}
	for _, c := range n.Children() {
		cs := inner
		if evaluatedOutside(n, c) {
			cs = scope
		}
		if f.visit(c, n, cs) {
			returnable = true
		}
	}
	if isValueBoundary(n) {
		returnable = false
	}
	inf.returnable = returnable
	return returnable
}

func opensScope(n Node) bool {
	switch n.(type) {
	case *Script, *Block, *FuncDecl, *EntityDecl, *MatchArm, *EachStmt, *ForStmt:
		return true
	}
	return false
}

// evaluatedOutside is true for children that belong to the enclosing scope
// even though their parent opens a new one.
func evaluatedOutside(parent, child Node) bool {
	switch p := parent.(type) {
	case *EntityDecl:
		return p.Base != nil && child == p.Base
	case *EachStmt:
		return child == p.Iterable
	}
	return false
}

// Returns inside these nodes never leave them.
func isValueBoundary(n Node) bool {
	switch n.(type) {
	case *FuncDecl, *AsyncBlock, *SafeBlock:
		return true
	}
	return false
}
