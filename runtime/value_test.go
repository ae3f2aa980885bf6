package runtime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want any
	}{
		{"3", int64(3)},
		{"3.0", int64(3)},
		{"2.5", 2.5},
		{"-7", int64(-7)},
		{"1e3", int64(1000)},
	} {
		v, err := ParseNumber(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, v.Value, tc.raw)
	}
	_, err := ParseNumber("three")
	assert.Error(t, err)
}

func TestEqualsAcrossNumberKinds(t *testing.T) {
	assert.True(t, NumberValue(2).Equals(NumberValue(2.0)))
	assert.False(t, NumberValue(2).Equals(StringValue("2")))
	assert.True(t, NULL.Clone().Equals(NULL))
	assert.False(t, BREAK.Equals(CONTINUE))

	a := TupleValue(NumberValue(1), StringValue("x"))
	b := TupleValue(NumberValue(1.0), StringValue("x"))
	assert.True(t, a.Equals(b))

	m1 := MapValue(Map{"k": ArrayValue(NumberValue(1))})
	m2 := MapValue(Map{"k": ArrayValue(NumberValue(1))})
	assert.True(t, m1.Equals(m2))
	m2.Value.(Map)["j"] = UNIT
	assert.False(t, m1.Equals(m2))
}

func TestStringsAreNormalized(t *testing.T) {
	composed := StringValue("\u00e9")
	decomposed := StringValue("e\u0301")
	assert.True(t, composed.Equals(decomposed))
	assert.Equal(t, "\u00e9", decomposed.Value)
}

func TestTruthy(t *testing.T) {
	assert.True(t, BoolValue(true).Truthy())
	assert.False(t, BoolValue(false).Truthy())
	assert.True(t, NumberValue(0.5).Truthy())
	assert.False(t, NumberValue(0).Truthy())
	assert.False(t, NumberValue(-1).Truthy())
	assert.False(t, NULL.Truthy())
	assert.False(t, UNIT.Truthy())
	assert.False(t, StringValue("yes").Truthy())
	assert.False(t, ArrayValue(NumberValue(1)).Truthy())
	assert.False(t, (&Value{Value: &Entity{Name: "E"}}).Truthy())
}

func TestCloneAndSet(t *testing.T) {
	arr := ArrayValue(NumberValue(1))
	alias := arr.Clone()
	alias.Value.(*Array).Items = append(alias.Value.(*Array).Items, NumberValue(2))
	assert.Len(t, arr.Value.(*Array).Items, 2, "arrays are shared between clones")

	n := NumberValue(1)
	c := n.Clone()
	c.Set(NumberValue(5))
	assert.Equal(t, int64(1), n.Value)
	assert.Equal(t, int64(5), c.Value)

	null := NULL.Clone()
	null.Set(StringValue("x"))
	assert.True(t, NULL.IsNull(), "sentinels never change through clones")
}

func TestValueStrings(t *testing.T) {
	ent := &Value{Value: &Entity{
		Name:    "P",
		Members: map[string]*Value{"x": NumberValue(1), "y": StringValue("a")},
		Order:   []string{"x", "y"},
	}}
	assert.Equal(t, "P{x: 1, y: a}", ent.String())
	assert.Equal(t, "[1, 2.5]", ArrayValue(NumberValue(1), NumberValue(2.5)).String())
	assert.Equal(t, "(1, true)", TupleValue(NumberValue(1), BoolValue(true)).String())
	assert.Equal(t, "{a: 1, b: 2}", MapValue(Map{"b": NumberValue(2), "a": NumberValue(1)}).String())
	assert.Equal(t, "null", NULL.String())
	assert.Equal(t, "()", UNIT.String())
}

func TestEntityLookupFollowsBase(t *testing.T) {
	base := &Value{Value: &Entity{Name: "B", Members: map[string]*Value{"v": NumberValue(1), "w": NumberValue(2)}}}
	child := &Entity{Name: "C", Members: map[string]*Value{"v": NumberValue(10)}, Base: base}

	v, ok := child.Lookup("v")
	require.True(t, ok)
	assert.Equal(t, int64(10), v.Value)
	w, ok := child.Lookup("w")
	require.True(t, ok)
	assert.Equal(t, int64(2), w.Value)
	_, ok = child.Lookup("z")
	assert.False(t, ok)
}

func TestIntegerOverflowPromotesToFloat(t *testing.T) {
	maxi, mini := NumberValue(int64(math.MaxInt64)), NumberValue(int64(math.MinInt64))
	for _, tc := range []struct {
		op   string
		l, r *Value
		want any
	}{
		{"+", maxi, NumberValue(1), math.Pow(2, 63)},
		{"-", mini, NumberValue(1), -math.Pow(2, 63)},
		{"*", maxi, NumberValue(2), math.Pow(2, 64)},
		{"*", mini, NumberValue(-1), math.Pow(2, 63)},
		{"/", mini, NumberValue(-1), math.Pow(2, 63)},
		{"+", maxi, NumberValue(-1), int64(math.MaxInt64 - 1)},
		{"-", mini, NumberValue(-1), int64(math.MinInt64 + 1)},
		{"*", NumberValue(-3), NumberValue(4), int64(-12)},
		{"*", NumberValue(0), mini, int64(0)},
	} {
		out := binaryOp(nil, tc.op, tc.l, tc.r)
		assert.Equal(t, tc.want, out.Value, "%v %s %v", tc.l.Value, tc.op, tc.r.Value)
	}
}
