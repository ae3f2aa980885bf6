package decl

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeNumbersNodesAndScopes(t *testing.T) {
	x := Ident("x")
	body := Blk(Ret(x))
	fn := Func("f", []string{"x"}, body)
	script := NewScript(fn)

	assert.Equal(t, NodeID(1), script.ID())
	assert.Equal(t, ScopeID(0), script.Scope())
	assert.Equal(t, ScopeID(1), script.OwnScope())

	assert.Equal(t, ScopeID(1), fn.Scope())
	assert.Equal(t, ScopeID(2), fn.OwnScope())
	assert.Equal(t, ScopeID(2), fn.Params[0].Scope())
	assert.Equal(t, ScopeID(3), body.OwnScope())
	assert.Equal(t, ScopeID(3), x.Scope())

	seen := map[NodeID]bool{}
	Walk(script, func(n Node) bool {
		assert.False(t, seen[n.ID()], "duplicate id %d", n.ID())
		seen[n.ID()] = true
		return true
	})
	assert.Len(t, seen, 6)
	assert.Same(t, fn, Enclosing(x, func(n Node) bool { _, ok := n.(*FuncDecl); return ok }))
}

func TestFinalizeOuterScopedChildren(t *testing.T) {
	base := Ident("Base")
	ext := Extends("Child", base)
	iter := Ident("xs")
	each := Each("x", "", iter, Blk())
	NewScript(ext, each)

	assert.Equal(t, ext.Scope(), base.Scope())
	assert.NotEqual(t, ext.OwnScope(), base.Scope())
	assert.Equal(t, each.Scope(), iter.Scope())
	assert.Equal(t, each.OwnScope(), each.Item.Scope())
}

func TestReturnableStopsAtValueBoundaries(t *testing.T) {
	ret := Ret(Num(1))
	inner := Blk(If(Bool(true), Blk(ret), nil))
	loop := While(Bool(true), Blk(Break()))
	fn := Lambda(nil, Blk(Ret(Num(2))))
	async := Async(Ret(Num(3)))
	NewScript(inner, loop, fn, async)

	assert.True(t, ret.Returnable())
	assert.True(t, inner.Returnable())
	assert.True(t, loop.Returnable())
	assert.False(t, fn.Returnable())
	assert.False(t, async.Returnable())
	assert.True(t, async.Body.Returnable())
}

func TestPatternNames(t *testing.T) {
	pattern := Unpack("a", "_", Unpack("b", Rest("")), Num(1))
	var names []string
	for _, id := range PatternNames(pattern) {
		names = append(names, id.Name)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("pattern names mismatch (-want +got):\n%s", diff)
	}
}

func TestDumpShowsScopesAndTypes(t *testing.T) {
	lit := Num(1)
	script := NewScript(Let("x", lit))
	lit.SetType(NumberType)
	out := PPrint(script)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "#1 *decl.Script")
	assert.Contains(t, lines[0], "[s0->s1]")
	assert.True(t, strings.HasPrefix(lines[3], "    #4 *decl.Literal"))
	assert.Contains(t, lines[3], ":: Number")
}
