package loader

import (
	"github.com/panyam/ohscript/decl"
)

func (a *Analyzer) inferStatements(owner Node, stmts []Node) *Type {
	for _, stmt := range stmts {
		a.infer(stmt)
	}
	return blockValueType(stmts, owner)
}

func (a *Analyzer) inferVarDecl(v *decl.VarDecl) *Type {
	if v.Value == nil {
		if !v.Mutable {
			a.Errorf(ConstNotInitialized, v, "'%s' is declared with let but never initialized", v.Target)
		}
		for _, id := range v.Names() {
			id.SetType(decl.UnknownType)
		}
		return decl.IgnoreType
	}
	vt := a.infer(v.Value)
	switch target := v.Target.(type) {
	case *decl.Identifier:
		if target.IsDiscard() {
			break
		}
		sym := a.scope(target.Scope()).Local(target.Name)
		if sym == nil {
			a.Errorf(VariableNotDefined, target, "'%s' was not declared", target.Name)
			break
		}
		a.refine(sym, vt, target)
		target.SetType(sym.Type)
	case *decl.TupleUnpacker:
		a.destructure(target, vt, true)
	default:
		a.Errorf(TypeMismatch, v.Target, "cannot declare %s", v.Target)
	}
	return decl.IgnoreType
}

func (a *Analyzer) inferReturn(r *decl.ReturnStmt) *Type {
	if r.Value == nil {
		return decl.UnitType
	}
	return a.infer(r.Value)
}

// inferCondition accepts Bool and, like the interpreter, Number.
func (a *Analyzer) inferCondition(cond Node) {
	if cond == nil {
		return
	}
	ct := a.infer(cond)
	if ct.IsUnresolvedAbstract() || ct.IsLoose() {
		return
	}
	if ct.Tag != decl.TypeTagBool && ct.Tag != decl.TypeTagNumber {
		a.Errorf(TypeMismatch, cond, "condition must be Bool, found %s", ct)
	}
}

func (a *Analyzer) inferIf(i *decl.IfStmt) *Type {
	a.inferCondition(i.Cond)
	a.infer(i.Then)
	if i.Else != nil {
		a.infer(i.Else)
	}
	return decl.IgnoreType
}

func (a *Analyzer) inferEach(e *decl.EachStmt) *Type {
	it := a.infer(e.Iterable)
	itemType, indexType := decl.UnknownType, decl.NumberType
	switch {
	case it.Tag == decl.TypeTagGeneric && it.Projection() == nil:
		it.AddShouldBe(decl.Shape{Kind: decl.ShapeArray})
	case it.IsLoose() || it.IsAbstract() || it.Tag == decl.TypeTagTuple:
	case it.Tag == decl.TypeTagArray:
		itemType = it.Item()
	case it.Tag == decl.TypeTagString, it.Tag == decl.TypeTagMap:
		itemType = decl.StringType
	default:
		a.Errorf(TypeMismatch, e.Iterable, "cannot iterate over %s", it)
	}
	if !e.Item.IsDiscard() {
		if sym := a.scope(e.OwnScope()).Local(e.Item.Name); sym != nil {
			a.refine(sym, itemType, e.Item)
			e.Item.SetType(sym.Type)
		}
	}
	if e.Index != nil && !e.Index.IsDiscard() {
		if sym := a.scope(e.OwnScope()).Local(e.Index.Name); sym != nil {
			a.refine(sym, indexType, e.Index)
			e.Index.SetType(sym.Type)
		}
	}
	a.infer(e.Body)
	return decl.IgnoreType
}

func (a *Analyzer) inferFor(f *decl.ForStmt) *Type {
	if f.Init != nil {
		a.infer(f.Init)
	}
	a.inferCondition(f.Cond)
	if f.Step != nil {
		a.infer(f.Step)
	}
	a.infer(f.Body)
	return decl.IgnoreType
}

func (a *Analyzer) inferImport(i *decl.ImportStmt) *Type {
	exports, err := a.Imports.Exports(i.Source)
	if err != nil || exports == nil {
		a.Errorf(ImportErrorSource, i, "cannot import from '%s': %v", i.Source, err)
		return decl.IgnoreType
	}
	sc := a.scope(i.Scope())
	bind := func(name string, at Node) {
		t, ok := exports[name]
		if !ok {
			a.Errorf(ImportErrorID, at, "'%s' does not export '%s'", i.Source, name)
			return
		}
		sym := sc.Local(name)
		if sym == nil {
			sym = sc.AddUnknown(name, at)
		}
		if sym.Kind == SymUnknown {
			sym.Kind = SymIdentifier
		}
		a.replace(sym, t)
		at.SetType(sym.Type)
	}
	if i.Star {
		for name := range exports {
			bind(name, i)
		}
		return decl.IgnoreType
	}
	for _, id := range i.Names {
		bind(id.Name, id)
	}
	return decl.IgnoreType
}

func (a *Analyzer) inferExport(e *decl.ExportStmt) *Type {
	if a.Unit.Exports == nil {
		a.Unit.Exports = map[string]*Type{}
	}
	for _, id := range e.Names {
		sym := a.lookup(id, id.Name)
		if sym == nil {
			a.Errorf(VariableNotDefined, id, "cannot export undefined '%s'", id.Name)
			continue
		}
		id.SetType(sym.Type)
		a.Unit.Exports[id.Name] = sym.Type
	}
	return decl.IgnoreType
}
