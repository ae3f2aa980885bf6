package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/panyam/ohscript/core"
	"github.com/panyam/ohscript/decl"
)

// ExportSource gives the analyzer access to other units' export tables.
type ExportSource interface {
	Exports(source string) (map[string]*Type, error)
}

// Analyzer runs the symbolize pass once and then repeats type inference
// until no symbol is refined any further.
type Analyzer struct {
	ErrorCollector
	Unit      *Unit
	Symbols   *SymbolTable
	Imports   ExportSource
	MaxPasses int
	Logger    core.Logger

	// Number of inference passes the last Analyze call ran.
	Passes int

	symbolized bool
	changed    bool
}

func NewAnalyzer(unit *Unit, imports ExportSource) *Analyzer {
	if unit.Symbols == nil {
		unit.Symbols = NewSymbolTable()
	}
	return &Analyzer{
		Unit:      unit,
		Symbols:   unit.Symbols,
		Imports:   imports,
		MaxPasses: core.DefaultMaxInferPasses,
		Logger:    core.Log().Named("analyzer"),
	}
}

// Analyze types every node of the unit and returns the diagnostics of the
// final inference pass.
func (a *Analyzer) Analyze() []*Diagnostic {
	root := a.Unit.Script
	if !a.symbolized {
		a.Symbolize(root)
	}
	maxPasses := max(a.MaxPasses, 1)
	for a.Passes = 1; ; a.Passes++ {
		a.Errors = nil
		a.changed = false
		a.infer(root)
		a.resolveParams(root)
		if !a.changed || a.Passes >= maxPasses {
			break
		}
	}
	a.Logger.Debug("unit '%s' analyzed in %d pass(es), %d diagnostic(s)", a.Unit.Name, a.Passes, len(a.Errors))
	a.Unit.Diagnostics = a.Diagnostics()
	a.Unit.Analyzed = true
	return a.Unit.Diagnostics
}

// Symbolize registers every declared name into the scope that owns it.
// Running it more than once has no further effect.
func (a *Analyzer) Symbolize(root Node) {
	a.symbolized = true
	decl.Walk(root, func(n Node) bool {
		if own := n.OwnScope(); own != 0 {
			a.Symbols.Open(own, n.Scope(), n)
		}
		a.symbolize(n)
		return true
	})
}

func (a *Analyzer) scope(id ScopeID) *Scope {
	if s := a.Symbols.Scope(id); s != nil {
		return s
	}
	return a.Symbols.Open(id, 0, nil)
}

func (a *Analyzer) symbolize(node Node) {
	switch n := node.(type) {
	case *decl.VarDecl:
		for _, id := range n.Names() {
			a.scope(id.Scope()).AddIdentifier(id.Name, id, n.Mutable)
		}
	case *decl.FuncDecl:
		if n.Name != "" {
			a.scope(n.Scope()).AddFunction(n.Name, n)
		}
		for _, p := range n.Params {
			sym := a.scope(n.OwnScope()).AddIdentifier(p.Name, p, true)
			if sym.Type.IsUnknown() {
				sym.Type = decl.GenericType(p.Name)
			}
		}
	case *decl.EntityDecl:
		if n.Name != "" {
			a.scope(n.Scope()).AddEntity(n.Name, n)
		}
		if n.Base != nil {
			a.scope(n.OwnScope()).AddIdentifier("base", n, false)
		}
	case *decl.EachStmt:
		own := a.scope(n.OwnScope())
		if !n.Item.IsDiscard() {
			own.AddIdentifier(n.Item.Name, n.Item, false)
		}
		if n.Index != nil && !n.Index.IsDiscard() {
			own.AddIdentifier(n.Index.Name, n.Index, false)
		}
	case *decl.MatchArm:
		for _, id := range decl.PatternNames(n.Pattern) {
			a.scope(n.OwnScope()).AddIdentifier(id.Name, id, true)
		}
	case *decl.ImportStmt:
		sc := a.scope(n.Scope())
		if n.Star {
			exports, err := a.Imports.Exports(n.Source)
			if err != nil {
				return
			}
			names := make([]string, 0, len(exports))
			for name := range exports {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				sc.AddUnknown(name, n)
			}
			return
		}
		for _, id := range n.Names {
			sc.AddUnknown(id.Name, id)
		}
	case *decl.LockBlock:
		if !slices.Contains(a.Unit.LockSites, n.ID()) {
			a.Unit.LockSites = append(a.Unit.LockSites, n.ID())
		}
	}
}

// resolveParams checks that what each unprojected parameter is used as
// does not contradict itself.
func (a *Analyzer) resolveParams(root Node) {
	decl.Walk(root, func(n Node) bool {
		f, ok := n.(*decl.FuncDecl)
		if !ok {
			return true
		}
		own := a.scope(f.OwnScope())
		for _, p := range f.Params {
			sym := own.Local(p.Name)
			if sym == nil || sym.Type.Tag != decl.TypeTagGeneric || sym.Type.Projection() != nil {
				continue
			}
			if _, err := sym.Type.Resolve(); err != nil {
				a.Errorf(TypeContradiction, p, "parameter '%s': %v", p.Name, err)
			}
		}
		return true
	})
}

// lookup resolves name from the scope a node is evaluated in.
func (a *Analyzer) lookup(from Node, name string) *Symbol {
	return a.Symbols.Lookup(from.Scope(), name)
}

func (a *Analyzer) refine(sym *Symbol, t *Type, at Node) bool {
	changed, err := sym.Refine(t)
	if err != nil {
		return a.Errorf(TypeMismatch, at, "%v", err)
	}
	if changed {
		a.changed = true
	}
	return true
}

func (a *Analyzer) replace(sym *Symbol, t *Type) {
	if sym.Replace(t) {
		a.changed = true
	}
}

// infer types one node. Anything unexpected while doing so degrades the
// node to Unknown instead of aborting the unit.
func (a *Analyzer) infer(node Node) (out *Type) {
	if node == nil {
		return decl.UnitType
	}
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Warn("inference of %T at %s failed: %v", node, node.Pos(), r)
			out = decl.UnknownType
		}
		if out == nil {
			out = decl.UnknownType
		}
		node.SetType(out)
	}()
	return a.inferNode(node)
}

func (a *Analyzer) inferNode(node Node) *Type {
	switch n := node.(type) {
	// --- Statement Nodes ---
	case *decl.Script:
		return a.inferStatements(n, n.Stmts)
	case *decl.Block:
		return a.inferStatements(n, n.Stmts)
	case *decl.VarDecl:
		return a.inferVarDecl(n)
	case *decl.ReturnStmt:
		return a.inferReturn(n)
	case *decl.IfStmt:
		return a.inferIf(n)
	case *decl.EachStmt:
		return a.inferEach(n)
	case *decl.ForStmt:
		return a.inferFor(n)
	case *decl.WhileStmt:
		a.inferCondition(n.Cond)
		a.infer(n.Body)
		return decl.IgnoreType
	case *decl.DoStmt:
		a.infer(n.Body)
		a.inferCondition(n.Cond)
		return decl.IgnoreType
	case *decl.LoopControl:
		return decl.IgnoreType
	case *decl.ImportStmt:
		return a.inferImport(n)
	case *decl.ExportStmt:
		return a.inferExport(n)

	// --- Expression Nodes ---
	case *decl.Literal:
		return a.inferLiteral(n)
	case *decl.Identifier:
		return a.inferIdentifier(n)
	case *decl.BinaryExpr:
		return a.inferBinary(n)
	case *decl.UnaryExpr:
		return a.inferUnary(n)
	case *decl.TernaryExpr:
		return a.inferTernary(n)
	case *decl.AssignExpr:
		return a.inferAssign(n)
	case *decl.FuncDecl:
		return a.inferFuncDecl(n)
	case *decl.CallExpr:
		return a.inferCall(n)
	case *decl.MemberAccess:
		return a.inferMember(n)
	case *decl.IndexAccess:
		return a.inferIndex(n)
	case *decl.EntityDecl:
		return a.inferEntity(n)
	case *decl.TupleDecl:
		return a.inferTuple(n)
	case *decl.ArrayDecl:
		return a.inferArray(n)
	case *decl.MapDecl:
		return a.inferMap(n)
	case *decl.MatchExpr:
		return a.inferMatch(n)
	case *decl.AsyncBlock:
		return decl.FutureType(a.infer(n.Body))
	case *decl.LockBlock:
		return a.infer(n.Body)
	case *decl.SafeBlock:
		return decl.SafeResultType(a.infer(n.Body))
	case *decl.PanicExpr:
		return a.inferPanic(n)
	case *decl.ExternalRef:
		return decl.ExternalType(n.Name)
	case *decl.ExternalNew:
		a.infer(n.Body)
		return decl.ExternalType(n.Class)
	case *decl.TupleUnpacker, *decl.Ellipsis:
		// patterns are typed by whoever owns them
		return decl.IgnoreType
	default:
		panic(fmt.Errorf("inference not implemented for node type %T", node))
	}
}

// firstReturn finds the first return statement under node without entering
// nested functions or async/safe bodies.
func firstReturn(node Node) *decl.ReturnStmt {
	var found *decl.ReturnStmt
	for _, c := range node.Children() {
		decl.Walk(c, func(n Node) bool {
			if found != nil {
				return false
			}
			switch v := n.(type) {
			case *decl.ReturnStmt:
				found = v
				return false
			case *decl.FuncDecl, *decl.AsyncBlock, *decl.SafeBlock:
				return false
			}
			return true
		})
		if found != nil {
			break
		}
	}
	return found
}

// blockValueType is the type of what a block body produces: its first
// return, else its trailing expression, else Unit.
func blockValueType(stmts []Node, owner Node) *Type {
	if r := firstReturn(owner); r != nil {
		return r.Type()
	}
	if len(stmts) == 0 {
		return decl.UnitType
	}
	last := stmts[len(stmts)-1].Type()
	if last.Tag == decl.TypeTagIgnore {
		return decl.UnitType
	}
	return last
}

// isPrivate is true for members like _secret (but not a bare _).
func isPrivate(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, "_")
}
