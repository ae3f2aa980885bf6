package decl

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUnit = `{
  "kind": "script",
  "stmts": [
    {"kind": "let", "line": 1, "col": 1, "target": {"kind": "ident", "name": "xs"},
     "value": {"kind": "array", "items": [{"kind": "num", "raw": "1"}, {"kind": "num", "raw": "2.5"}]}},
    {"kind": "func", "name": "twice", "params": ["f", "x"], "body": {"kind": "block", "stmts": [
      {"kind": "return", "value": {"kind": "call", "callee": {"kind": "ident", "name": "f"},
        "args": [{"kind": "call", "callee": {"kind": "ident", "name": "f"}, "args": [{"kind": "ident", "name": "x"}]}]}}
    ]}},
    {"kind": "match", "subject": {"kind": "ident", "name": "xs"}, "arms": [
      {"pattern": {"kind": "unpack", "items": [{"kind": "ident", "name": "a"}, {"kind": "rest"}]}, "body": {"kind": "ident", "name": "a"}}
    ]},
    {"kind": "entity", "name": "Child", "base": {"kind": "ident", "name": "Base"}, "members": [
      {"kind": "var", "target": {"kind": "ident", "name": "n"}, "value": {"kind": "num", "raw": "0"}}
    ]},
    {"kind": "import", "source": "lib", "names": ["k"]}
  ]
}`

func TestDecodeScript(t *testing.T) {
	script, err := DecodeScript(strings.NewReader(sampleUnit))
	require.NoError(t, err)
	require.Len(t, script.Stmts, 5)

	var kinds []string
	for _, s := range script.Stmts {
		kinds = append(kinds, strings.TrimPrefix(fmt.Sprintf("%T", s), "*decl."))
	}
	want := []string{"VarDecl", "FuncDecl", "MatchExpr", "EntityDecl", "ImportStmt"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("statement kinds mismatch (-want +got):\n%s", diff)
	}

	let := script.Stmts[0].(*VarDecl)
	assert.False(t, let.Mutable)
	assert.Equal(t, Location{1, 1}, let.Pos())

	fn := script.Stmts[1].(*FuncDecl)
	assert.Equal(t, "twice", fn.Name)
	assert.Len(t, fn.Params, 2)
	assert.False(t, fn.IsExpressionBodied())

	ent := script.Stmts[3].(*EntityDecl)
	require.NotNil(t, ent.Base)
	assert.Equal(t, script.OwnScope(), ent.Base.Scope())

	imp := script.Stmts[4].(*ImportStmt)
	assert.Equal(t, "lib", imp.Source)
	assert.Equal(t, "k", imp.Names[0].Name)

	// finalized: every node has a parent except the root
	Walk(script, func(n Node) bool {
		if n != Node(script) {
			assert.NotNil(t, n.Parent(), "%T has no parent", n)
		}
		return true
	})
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeScript(strings.NewReader(`{"kind": "block"}`))
	assert.ErrorContains(t, err, "expected a script")

	_, err = DecodeScript(strings.NewReader(`{"kind": "script", "stmts": [{"kind": "goto"}]}`))
	assert.True(t, errors.Is(err, ErrUnknownNodeKind))

	_, err = DecodeScript(strings.NewReader(`{"kind": "script", "stmts": [{"kind": "map", "keys": [{"kind": "str", "raw": "a"}]}]}`))
	assert.Error(t, err)

	_, err = DecodeScript(strings.NewReader(`not json`))
	assert.Error(t, err)
}
