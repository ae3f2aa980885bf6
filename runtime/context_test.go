package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextShadowingAndAssign(t *testing.T) {
	top := NewContext()
	top.Put("x", NumberValue(1))
	top.Put("y", NumberValue(2))

	inner := top.Push(3)
	inner.Put("x", StringValue("shadow"))

	v, owner := inner.Lookup("x")
	assert.Equal(t, inner, owner)
	assert.Equal(t, "shadow", v.Value)

	require.True(t, inner.Assign("y", NumberValue(20)))
	y, _ := top.Get("y")
	assert.Equal(t, int64(20), y.Value)

	assert.False(t, inner.Assign("z", NULL))
	_, ok := inner.Get("z")
	assert.False(t, ok)
	assert.Equal(t, top, inner.Parent())
}

func TestContextAssignKeepsBindingIdentity(t *testing.T) {
	top := NewContext()
	binding := NumberValue(1)
	top.Put("n", binding)
	top.Push(1).Assign("n", NumberValue(2))
	assert.Equal(t, int64(2), binding.Value)
}

func TestContextNamesInOrder(t *testing.T) {
	c := NewContext()
	c.Put("b", UNIT)
	c.Put("a", UNIT)
	c.Put("b", NULL)
	assert.Equal(t, []string{"b", "a"}, c.Names())
	assert.Len(t, c.All(), 2)
}

func TestContextTakeThis(t *testing.T) {
	c := NewContext()
	assert.Nil(t, c.TakeThis())
	recv := StringValue("r")
	c.SetThis(recv)
	assert.Same(t, recv, c.TakeThis())
	assert.Nil(t, c.TakeThis())
}
