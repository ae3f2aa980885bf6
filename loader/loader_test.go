package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/panyam/ohscript/core"
	"github.com/panyam/ohscript/decl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func libUnit() *decl.Script {
	return decl.NewScript(
		decl.Let("k", decl.Num(1)),
		decl.Func("inc", []string{"x"}, decl.Blk(decl.Ret(decl.Bin(decl.Ident("x"), "+", decl.Num(1))))),
		decl.Export("k", "inc"),
	)
}

func TestImportExport(t *testing.T) {
	u := analyze(t, map[string]*decl.Script{
		"lib": libUnit(),
		"main": decl.NewScript(
			decl.Import("lib", "k", "inc"),
			decl.Let("y", decl.Bin(decl.Ident("k"), "+", decl.Num(1))),
			decl.Let("z", decl.Call("inc", decl.Num(2))),
		),
	})
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "y"))
	assert.Equal(t, "Number", typeOf(t, u, "z"))
}

func TestImportStar(t *testing.T) {
	u := analyze(t, map[string]*decl.Script{
		"lib":  libUnit(),
		"main": decl.NewScript(decl.ImportAll("lib"), decl.Let("y", decl.Ident("k"))),
	})
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "y"))
}

func TestImportErrors(t *testing.T) {
	u := analyze(t, map[string]*decl.Script{
		"lib":  libUnit(),
		"main": decl.NewScript(decl.Import("lib", "nope")),
	})
	assert.Equal(t, []ErrorKind{ImportErrorID}, kinds(u))

	u = analyze(t, map[string]*decl.Script{
		"main": decl.NewScript(decl.Import("missing", "k")),
	})
	assert.Equal(t, []ErrorKind{ImportErrorSource}, kinds(u))
}

func TestImportCycle(t *testing.T) {
	u := analyze(t, map[string]*decl.Script{
		"main":  decl.NewScript(decl.Import("other", "b"), decl.Let("a", decl.Num(1)), decl.Export("a")),
		"other": decl.NewScript(decl.Import("main", "a"), decl.Let("b", decl.Num(2)), decl.Export("b")),
	})
	require.Len(t, u.Diagnostics, 1)
	assert.Equal(t, ImportErrorSource, u.Diagnostics[0].Kind)
	assert.Contains(t, u.Diagnostics[0].Message, "circular import")
}

func TestCheckReturnsAnalysisError(t *testing.T) {
	defer core.QuietTest(t)()
	l := NewLoader(nil, 0)
	l.Add("bad", decl.NewScript(decl.Let("x", decl.Num(1)), decl.Assign("x", decl.Num(2))))

	_, err := l.Check("bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAnalysisFailed))

	var ae *AnalysisError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "bad", ae.Unit)
	assert.Contains(t, err.Error(), "VARIABLE_NOT_MUTABLE")

	_, err = l.Load("unknown")
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestLoadIsCached(t *testing.T) {
	defer core.QuietTest(t)()
	l := NewLoader(MemoryResolver{"lib": libUnit()}, 0)
	first, err := l.Load("lib")
	require.NoError(t, err)
	second, err := l.Load("lib")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, first, l.Unit("lib"))

	exports, err := l.Exports("lib")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"k", "inc"}, keys(exports))
}

func keys[V any](m map[string]V) (out []string) {
	for k := range m {
		out = append(out, k)
	}
	return
}

const counterUnit = `{
  "kind": "script",
  "stmts": [
    {"kind": "var", "target": {"kind": "ident", "name": "n"}, "value": {"kind": "num", "raw": "0"}},
    {"kind": "lock", "body": {"kind": "block", "stmts": [
      {"kind": "unary", "op": "++", "postfix": true, "operand": {"kind": "ident", "name": "n"}}
    ]}},
    {"kind": "export", "names": ["n"]}
  ]
}`

func TestFileResolver(t *testing.T) {
	defer core.QuietTest(t)()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "counter.json"), []byte(counterUnit), 0o644))

	l := NewLoader(NewFileResolver(dir), 0)
	u, err := l.Check("pkg/counter")
	require.NoError(t, err)
	assert.Len(t, u.LockSites, 1)
	assert.Equal(t, "Number", u.Exports["n"].String())

	_, err = l.Load("pkg/absent")
	assert.ErrorIs(t, err, ErrUnitNotFound)

	_, err = NewFileResolver(dir).Resolve("../outside")
	assert.Error(t, err)
}
