package runtime

import (
	"fmt"
	"sync"

	"github.com/panyam/ohscript/decl"
)

// HostBridge is how scripts reach the embedding program: ext::name
// references resolve through it and new ext::Class{...} instantiates
// through it.
type HostBridge interface {
	Resolve(name string) (*Value, bool)
	Instantiate(class string, fields map[string]*Value) (*Value, error)
}

// MemberHost is implemented by external handles that expose members to
// scripts.
type MemberHost interface {
	Member(name string) (*Value, bool)
}

// Constructor builds the handle for a host class from script supplied
// fields.
type Constructor func(fields map[string]*Value) (any, error)

// MapHost is a HostBridge backed by maps, enough for embedding simple
// natives and for tests.
type MapHost struct {
	mu       sync.RWMutex
	bindings map[string]*Value
	classes  map[string]Constructor
}

func NewMapHost() *MapHost {
	return &MapHost{bindings: map[string]*Value{}, classes: map[string]Constructor{}}
}

func (h *MapHost) Bind(name string, v *Value) *MapHost {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bindings[name] = v
	return h
}

// BindFunc exposes fn as ext::name.
func (h *MapHost) BindFunc(name string, arity int, fn func(args []*Value) *Value) *MapHost {
	return h.Bind(name, NativeValue(name, arity, decl.UnknownType, func(_ *Value, args []*Value) *Value {
		return fn(args)
	}))
}

// DefineClass registers a host class. A nil ctor stores the fields as a
// HostObject.
func (h *MapHost) DefineClass(class string, ctor Constructor) *MapHost {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.classes[class] = ctor
	return h
}

func (h *MapHost) Resolve(name string) (*Value, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.bindings[name]
	return v, ok
}

func (h *MapHost) Instantiate(class string, fields map[string]*Value) (*Value, error) {
	h.mu.RLock()
	ctor, ok := h.classes[class]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown host class %q", class)
	}
	if ctor == nil {
		return ExternalValue(class, &HostObject{Class: class, Fields: fields}), nil
	}
	handle, err := ctor(fields)
	if err != nil {
		return nil, err
	}
	return ExternalValue(class, handle), nil
}

// HostObject is the default handle for classes without a constructor.
type HostObject struct {
	Class  string
	Fields map[string]*Value
}

func (o *HostObject) Member(name string) (*Value, bool) {
	v, ok := o.Fields[name]
	return v, ok
}

func (o *HostObject) String() string {
	return fmt.Sprintf("%s{%d fields}", o.Class, len(o.Fields))
}
