package runtime

import (
	"fmt"
	"maps"
	"sync"

	"github.com/panyam/ohscript/decl"
)

// Context is one activation frame: the values bound in a scope plus a link
// to the frame it was pushed from. Frames outlive their evaluation when a
// closure or entity captures them, so they are never recycled.
//
// A frame may be read by async bodies running on other goroutines, so the
// store is guarded.
type Context struct {
	Scope  decl.ScopeID
	parent *Context

	mu    sync.RWMutex
	store map[string]*Value
	order []string

	// receiver set by a member access and consumed by the call around it
	this *Value
}

// NewContext creates a fresh top level frame.
func NewContext() *Context {
	return &Context{store: map[string]*Value{}}
}

// Push creates a child frame for scope.
func (c *Context) Push(scope decl.ScopeID) *Context {
	out := NewContext()
	out.Scope = scope
	out.parent = c
	return out
}

func (c *Context) Parent() *Context { return c.parent }

// Lookup finds name in this frame or an enclosing one and returns the
// frame that owns it.
func (c *Context) Lookup(name string) (*Value, *Context) {
	for curr := c; curr != nil; curr = curr.parent {
		curr.mu.RLock()
		v, ok := curr.store[name]
		curr.mu.RUnlock()
		if ok {
			return v, curr
		}
	}
	return nil, nil
}

func (c *Context) Get(name string) (*Value, bool) {
	v, owner := c.Lookup(name)
	return v, owner != nil
}

// Put binds name in this frame only, shadowing outer bindings.
func (c *Context) Put(name string, v *Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.store[name]; !ok {
		c.order = append(c.order, name)
	}
	c.store[name] = v
}

// Assign overwrites an existing binding in place, wherever it lives.
// Returns false if name is not bound anywhere.
func (c *Context) Assign(name string, v *Value) bool {
	curr, owner := c.Lookup(name)
	if owner == nil {
		return false
	}
	owner.mu.Lock()
	defer owner.mu.Unlock()
	curr.Set(v)
	return true
}

func (c *Context) SetThis(v *Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.this = v
}

// TakeThis returns and clears the pending receiver.
func (c *Context) TakeThis() *Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.this
	c.this = nil
	return out
}

// Names lists this frame's bindings in declaration order.
func (c *Context) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// All returns this frame's bindings, not including enclosing frames.
func (c *Context) All() map[string]*Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.store)
}

func (c *Context) String() string {
	return fmt.Sprintf("Context{scope: s%d, names: %v, outer: %v}", c.Scope, c.Names(), c.parent != nil)
}
