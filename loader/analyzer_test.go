package loader

import (
	"testing"

	"github.com/panyam/ohscript/core"
	"github.com/panyam/ohscript/decl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// analyze loads "main" from the given units and returns it analyzed.
func analyze(t *testing.T, units map[string]*decl.Script) *Unit {
	t.Helper()
	defer core.QuietTest(t)()
	l := NewLoader(MemoryResolver(units), 0)
	u, err := l.Load("main")
	require.NoError(t, err)
	require.True(t, u.Analyzed)
	return u
}

func analyzeMain(t *testing.T, stmts ...Node) *Unit {
	t.Helper()
	return analyze(t, map[string]*decl.Script{"main": decl.NewScript(stmts...)})
}

func kinds(u *Unit) (out []ErrorKind) {
	for _, d := range u.Diagnostics {
		out = append(out, d.Kind)
	}
	return
}

func typeOf(t *testing.T, u *Unit, name string) string {
	t.Helper()
	sym := u.Symbols.Lookup(u.Script.OwnScope(), name)
	require.NotNil(t, sym, "symbol %s", name)
	return sym.Type.String()
}

func TestCleanScript(t *testing.T) {
	u := analyzeMain(t,
		decl.Let("x", decl.Bin(decl.Num(1), "+", decl.Num(2))),
		decl.Let("s", decl.Bin(decl.Str("a"), "+", decl.Ident("x"))),
		decl.Let("b", decl.Bin(decl.Ident("x"), "<", decl.Num(10))),
		decl.Let("xs", decl.Array(decl.Num(1), decl.Num(2))),
		decl.Let("first", decl.Index("xs", decl.Num(0))),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "x"))
	assert.Equal(t, "String", typeOf(t, u, "s"))
	assert.Equal(t, "Bool", typeOf(t, u, "b"))
	assert.Equal(t, "Array<Number>", typeOf(t, u, "xs"))
	assert.Equal(t, "Number", typeOf(t, u, "first"))
}

func TestReassignWithDifferentType(t *testing.T) {
	u := analyzeMain(t,
		decl.Var("x", decl.Num(1)),
		decl.Assign("x", decl.Str("a")),
	)
	assert.Equal(t, []ErrorKind{TypeMismatch}, kinds(u))
	assert.Equal(t, "Number", typeOf(t, u, "x"))
}

func TestUntypedVariableAdoptsFirstUse(t *testing.T) {
	u := analyzeMain(t,
		decl.Var("x", nil),
		decl.Bin(decl.Ident("x"), "-", decl.Num(1)),
		decl.Assign("x", decl.Str("a")),
	)
	assert.Equal(t, []ErrorKind{TypeMismatch}, kinds(u))
	assert.Equal(t, "Number", typeOf(t, u, "x"))
}

func TestArithmeticOnString(t *testing.T) {
	u := analyzeMain(t,
		decl.Let("s", decl.Str("a")),
		decl.Let("n", decl.Bin(decl.Ident("s"), "-", decl.Num(1))),
	)
	assert.Contains(t, kinds(u), TypeMismatch)
}

func TestMutability(t *testing.T) {
	u := analyzeMain(t,
		decl.Let("x", decl.Num(1)),
		decl.Assign("x", decl.Num(2)),
	)
	assert.Equal(t, []ErrorKind{VariableNotMutable}, kinds(u))

	u = analyzeMain(t, decl.Let("x", nil))
	assert.Equal(t, []ErrorKind{ConstNotInitialized}, kinds(u))

	u = analyzeMain(t, decl.Var("x", nil), decl.Assign("x", decl.Num(3)))
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "x"))
}

func TestUndefinedNames(t *testing.T) {
	u := analyzeMain(t, decl.Let("y", decl.Bin(decl.Ident("z"), "+", decl.Num(1))))
	assert.Equal(t, []ErrorKind{VariableNotDefined}, kinds(u))

	u = analyzeMain(t, decl.Call("nothing"))
	assert.Equal(t, []ErrorKind{FunctionNotDefined}, kinds(u))
}

func TestGenericFunctionProjection(t *testing.T) {
	add := decl.Func("add", []string{"a", "b"}, decl.Blk(decl.Ret(decl.Bin(decl.Ident("a"), "+", decl.Ident("b")))))
	u := analyzeMain(t,
		add,
		decl.Let("n", decl.Call("add", decl.Num(1), decl.Num(2))),
		decl.Let("s", decl.Call("add", decl.Str("x"), decl.Num(2))),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "n"))
	assert.Equal(t, "String", typeOf(t, u, "s"))
}

func TestPlusOverParametersFollowsArguments(t *testing.T) {
	add := decl.Func("add", []string{"a", "b"}, decl.Blk(decl.Ret(decl.Bin(decl.Ident("a"), "+", decl.Ident("b")))))
	u := analyzeMain(t,
		add,
		decl.Let("s", decl.Call("add", decl.Num(1), decl.Str("x"))),
		decl.Let("n", decl.Call("add", decl.Num(1), decl.Num(2))),
		decl.Let("m", decl.Bin(decl.Call("add", decl.Num(1), decl.Str("x")), "-", decl.Num(1))),
	)
	assert.Equal(t, []ErrorKind{TypeMismatch}, kinds(u))
	assert.Equal(t, "String", typeOf(t, u, "s"))
	assert.Equal(t, "Number", typeOf(t, u, "n"))
}

func TestContradictoryParameterUse(t *testing.T) {
	u := analyzeMain(t,
		decl.Func("f", []string{"x"}, decl.Blk(
			decl.Let("a", decl.Bin(decl.Ident("x"), "-", decl.Num(1))),
			decl.Let("b", decl.Unary("!", decl.Ident("x"))),
			decl.Ret(decl.Ident("a")),
		)),
	)
	require.Equal(t, []ErrorKind{TypeContradiction}, kinds(u))
	_, isParam := u.Diagnostics[0].Node.(*decl.Identifier)
	assert.True(t, isParam)

	// consistent uses of the same parameter are fine
	u = analyzeMain(t,
		decl.Func("g", []string{"x"}, decl.Blk(
			decl.Let("a", decl.Bin(decl.Ident("x"), "-", decl.Num(1))),
			decl.Ret(decl.Bin(decl.Ident("x"), "*", decl.Ident("a"))),
		)),
		decl.Let("r", decl.Call("g", decl.Num(3))),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "r"))
}

// opaqueNode has no inference rule.
type opaqueNode struct{ decl.NodeInfo }

func TestInferenceFailureDegradesToUnknown(t *testing.T) {
	bad := &opaqueNode{}
	u := analyzeMain(t,
		decl.Let("a", bad),
		decl.Let("b", decl.Num(2)),
		decl.Let("c", decl.Bin(decl.Ident("b"), "*", decl.Num(3))),
	)
	assert.Empty(t, u.Diagnostics)
	assert.True(t, bad.Type().IsUnknown())
	assert.Equal(t, "Unknown", typeOf(t, u, "a"))
	assert.Equal(t, "Number", typeOf(t, u, "b"))
	assert.Equal(t, "Number", typeOf(t, u, "c"))
}

func TestArgumentCounts(t *testing.T) {
	add := func() Node { return decl.Func("add", []string{"a", "b"}, decl.Blk(decl.Ret(decl.Bin(decl.Ident("a"), "*", decl.Ident("b"))))) }
	noArgs := func() Node { return decl.Func("one", nil, decl.Blk(decl.Ret(decl.Num(1)))) }

	u := analyzeMain(t, add(), decl.Call("add", decl.Num(1)))
	assert.Equal(t, []ErrorKind{ArgumentMissing}, kinds(u))

	u = analyzeMain(t, add(), decl.Call("add", decl.Num(1), decl.Num(2), decl.Num(3)))
	assert.Equal(t, []ErrorKind{ArgumentNotExist}, kinds(u))

	u = analyzeMain(t, noArgs(), decl.Call("one", decl.Num(1)))
	assert.Equal(t, []ErrorKind{ArgumentNotExist}, kinds(u))

	u = analyzeMain(t, add(), decl.Call("add"))
	assert.Equal(t, []ErrorKind{ArgumentMissing}, kinds(u))

	u = analyzeMain(t, noArgs(), decl.Let("v", decl.Call("one")))
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "v"))
}

func TestGenericConstraintsFromUsage(t *testing.T) {
	// a parameter used with - must be a Number
	u := analyzeMain(t,
		decl.Func("dec", []string{"n"}, decl.Blk(decl.Ret(decl.Bin(decl.Ident("n"), "-", decl.Num(1))))),
		decl.Call("dec", decl.Str("a")),
	)
	assert.Equal(t, []ErrorKind{TypeMismatch}, kinds(u))

	// a parameter that is called must be callable
	u = analyzeMain(t,
		decl.Func("apply", []string{"f"}, decl.Blk(decl.Ret(decl.Call("f", decl.Num(1))))),
		decl.Call("apply", decl.Num(5)),
	)
	assert.Equal(t, []ErrorKind{TypeMismatch}, kinds(u))
}

func TestEntityMembers(t *testing.T) {
	u := analyzeMain(t,
		decl.Entity("Point",
			decl.Var("x", decl.Num(1)),
			decl.Let("_secret", decl.Num(2)),
			decl.Func("peek", nil, decl.Blk(decl.Ret(decl.Member("this", "_secret")))),
		),
		decl.Let("px", decl.Member("Point", "x")),
		decl.Let("peeked", decl.Call(decl.Member("Point", "peek"))),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "px"))
	assert.Equal(t, "Number", typeOf(t, u, "peeked"))

	u = analyzeMain(t,
		decl.Entity("Point", decl.Let("_secret", decl.Num(2))),
		decl.Member("Point", "_secret"),
	)
	assert.Equal(t, []ErrorKind{EntityMemberAccessDenied}, kinds(u))

	u = analyzeMain(t,
		decl.Entity("Point", decl.Let("x", decl.Num(2))),
		decl.Member("Point", "y"),
	)
	assert.Equal(t, []ErrorKind{EntityMemberNotDefined}, kinds(u))
}

func TestEntityExtension(t *testing.T) {
	u := analyzeMain(t,
		decl.Entity("Base", decl.Let("v", decl.Num(1))),
		decl.Extends("Child", "Base", decl.Let("w", decl.Bin(decl.Ident("v"), "+", decl.Num(1)))),
		decl.Let("inherited", decl.Member("Child", "v")),
		decl.Let("own", decl.Member("Child", "w")),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "inherited"))
	assert.Equal(t, "Number", typeOf(t, u, "own"))

	u = analyzeMain(t, decl.Extends("Child", "Missing", decl.Let("w", decl.Num(1))))
	assert.Equal(t, []ErrorKind{EntityNotFound}, kinds(u))
}

func TestBuiltinMembers(t *testing.T) {
	u := analyzeMain(t,
		decl.Let("xs", decl.Array(decl.Str("a"))),
		decl.Let("n", decl.Call(decl.Member("xs", "size"))),
		decl.Let("up", decl.Call(decl.Member(decl.Str("abc"), "upper"))),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "n"))
	assert.Equal(t, "String", typeOf(t, u, "up"))

	u = analyzeMain(t, decl.Let("xs", decl.Array(decl.Num(1))), decl.Member("xs", "shuffle"))
	assert.Equal(t, []ErrorKind{SystemMemberNotFound}, kinds(u))
}

func TestDestructuring(t *testing.T) {
	u := analyzeMain(t,
		decl.Let("t", decl.Tuple(decl.Num(1), decl.Str("a"), decl.Bool(true))),
		decl.Let(decl.Unpack("first", decl.Rest(""), "last"), decl.Ident("t")),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "first"))
	assert.Equal(t, "Bool", typeOf(t, u, "last"))

	u = analyzeMain(t, decl.Let(decl.Unpack("a", "b"), decl.Tuple(decl.Num(1), decl.Num(2), decl.Num(3))))
	assert.Equal(t, []ErrorKind{TypeMismatch}, kinds(u))

	u = analyzeMain(t,
		decl.Entity("P", decl.Let("x", decl.Num(1)), decl.Let("y", decl.Str("s"))),
		decl.Let(decl.Unpack("y"), decl.Ident("P")),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "String", typeOf(t, u, "y"))
}

func TestMatchArms(t *testing.T) {
	u := analyzeMain(t,
		decl.Let("r", decl.Match(decl.Tuple(decl.Num(1), decl.Num(2)),
			decl.Arm(decl.Unpack(decl.Num(0), "_"), decl.Str("zero")),
			decl.Arm(decl.Unpack("a", "b"), decl.Str("other")),
		)),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "String", typeOf(t, u, "r"))
}

func TestConcurrencyBlockTypes(t *testing.T) {
	u := analyzeMain(t,
		decl.Let("f", decl.Async(decl.Ret(decl.Num(1)))),
		decl.Let("v", decl.Call(decl.Member("f", "await"))),
		decl.Let("s", decl.Safe(decl.Panic(decl.Num(42), decl.Str("boom")))),
		decl.Let("code", decl.Member("s", "panic_code")),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Equal(t, "Number", typeOf(t, u, "v"))
	assert.Equal(t, "Number", typeOf(t, u, "code"))
}

func TestLockSitesAreCollected(t *testing.T) {
	u := analyzeMain(t,
		decl.Var("n", decl.Num(0)),
		decl.Lock(decl.Assign("n", decl.Bin(decl.Ident("n"), "+", decl.Num(1)))),
		decl.Func("f", nil, decl.Blk(decl.Lock(decl.Postfix(decl.Ident("n"), "++")))),
	)
	assert.Empty(t, u.Diagnostics)
	assert.Len(t, u.LockSites, 2)
}

func TestPassesStayBounded(t *testing.T) {
	u := analyzeMain(t,
		decl.Func("f", []string{"x"}, decl.Blk(decl.Ret(decl.Call("g", decl.Ident("x"))))),
		decl.Func("g", []string{"y"}, decl.Blk(decl.Ret(decl.Bin(decl.Ident("y"), "*", decl.Num(2))))),
		decl.Let("r", decl.Call("f", decl.Num(3))),
	)
	assert.Empty(t, u.Diagnostics)
	assert.LessOrEqual(t, u.Passes, core.DefaultMaxInferPasses)
}
