package loader

import (
	"testing"

	"github.com/panyam/ohscript/decl"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestScopeLookupWalksOutwards(t *testing.T) {
	table := NewSymbolTable()
	outer := table.Open(1, 0, nil)
	inner := table.Open(2, 1, nil)

	outer.AddIdentifier("x", nil, false)
	inner.AddIdentifier("y", nil, true)

	assert.Assert(t, table.Lookup(2, "x") != nil)
	assert.Assert(t, table.Lookup(1, "y") == nil)
	assert.Assert(t, inner.Local("x") == nil)

	sym, owner := inner.Lookup("y")
	assert.Equal(t, owner, inner)
	assert.Assert(t, sym.Mutable)
	assert.Equal(t, table.Len(), 2)
}

func TestDeclareIsIdempotent(t *testing.T) {
	s := NewSymbolTable().Open(1, 0, nil)
	first := s.AddIdentifier("x", nil, false)
	second := s.AddIdentifier("x", nil, true)
	assert.Assert(t, first == second)
	assert.Assert(t, !second.Mutable)
	assert.Equal(t, len(s.Symbols()), 1)
}

func TestUnknownPlaceholderIsUpgraded(t *testing.T) {
	s := NewSymbolTable().Open(1, 0, nil)
	placeholder := s.AddUnknown("f", nil)
	assert.Equal(t, placeholder.Kind, SymUnknown)

	fn := s.AddFunction("f", nil)
	assert.Assert(t, placeholder == fn)
	assert.Equal(t, fn.Kind, SymFunction)
	assert.Equal(t, fn.Kind.String(), "function")
}

func TestSymbolsKeepDeclarationOrder(t *testing.T) {
	s := NewSymbolTable().Open(1, 0, nil)
	for _, name := range []string{"c", "a", "b"} {
		s.AddIdentifier(name, nil, false)
	}
	var names []string
	for _, sym := range s.Symbols() {
		names = append(names, sym.Name)
	}
	assert.DeepEqual(t, names, []string{"c", "a", "b"})
}

func TestRefine(t *testing.T) {
	sym := &Symbol{Name: "x", Type: decl.UnknownType}

	changed, err := sym.Refine(decl.UnknownType)
	assert.NilError(t, err)
	assert.Assert(t, !changed)

	changed, err = sym.Refine(decl.NumberType)
	assert.NilError(t, err)
	assert.Assert(t, changed)
	assert.Equal(t, sym.Type.String(), "Number")

	changed, err = sym.Refine(decl.NumberType)
	assert.NilError(t, err)
	assert.Assert(t, !changed)

	_, err = sym.Refine(decl.StringType)
	assert.ErrorContains(t, err, "cannot be String")
	assert.Equal(t, sym.Type.String(), "Number")
}

func TestRefineFillsUnknownParts(t *testing.T) {
	sym := &Symbol{Name: "xs", Type: decl.ArrayType(decl.UnknownType)}
	changed, err := sym.Refine(decl.ArrayType(decl.StringType))
	assert.NilError(t, err)
	assert.Assert(t, changed)
	assert.Check(t, is.Equal(sym.Type.String(), "Array<String>"))
}

func TestReplace(t *testing.T) {
	sym := &Symbol{Name: "f", Kind: SymFunction, Type: decl.UnknownType}
	assert.Assert(t, sym.Replace(decl.FuncOf(nil, decl.NumberType)))
	assert.Assert(t, !sym.Replace(decl.FuncOf(nil, decl.NumberType)))
	assert.Assert(t, sym.Replace(decl.FuncOf(nil, decl.StringType)))
	assert.Assert(t, !sym.Replace(decl.UnknownType))
}
