package loader

import (
	"fmt"

	"github.com/panyam/ohscript/decl"
)

type SymbolKind int

const (
	SymIdentifier SymbolKind = iota
	SymFunction
	SymEntity

	// Placeholder for a name whose declaration has not been seen yet, such
	// as an imported name before its source unit is consulted.
	SymUnknown
)

func (k SymbolKind) String() string {
	switch k {
	case SymIdentifier:
		return "identifier"
	case SymFunction:
		return "function"
	case SymEntity:
		return "entity"
	}
	return "unknown"
}

// Symbol is one entry of a scope.
type Symbol struct {
	Kind    SymbolKind
	Name    string
	Mutable bool
	Type    *Type

	// Node that declared the symbol.
	Decl Node
}

// Refine narrows the symbol's type. An Unknown candidate is never a
// refinement. An Unknown symbol adopts the candidate; otherwise the
// candidate must be compatible and only replaces a type that still has
// Unknown parts in it.
func (s *Symbol) Refine(t *Type) (changed bool, err error) {
	if t.IsUnknown() {
		return false, nil
	}
	if s.Type.IsUnknown() {
		s.Type = t
		return true, nil
	}
	if !t.Is(s.Type) {
		return false, fmt.Errorf("'%s' is %s, cannot be %s", s.Name, s.Type, t)
	}
	if s.Type.HasUnknown() && !t.HasUnknown() && t.String() != s.Type.String() {
		s.Type = t
		return true, nil
	}
	return false, nil
}

// Replace overwrites the type of a declaration symbol (function, entity),
// which is rebuilt on every inference pass.
func (s *Symbol) Replace(t *Type) (changed bool) {
	if t.IsUnknown() {
		return false
	}
	changed = s.Type.IsUnknown() || s.Type.String() != t.String()
	s.Type = t
	return
}

// Scope maps names to symbols and links to its enclosing scope.
type Scope struct {
	ID     ScopeID
	Parent *Scope

	// Node that opened the scope.
	Owner Node

	symbols map[string]*Symbol
	order   []string
}

func newScope(id ScopeID, parent *Scope, owner Node) *Scope {
	return &Scope{ID: id, Parent: parent, Owner: owner, symbols: map[string]*Symbol{}}
}

// Local returns a symbol declared directly in this scope.
func (s *Scope) Local(name string) *Symbol {
	return s.symbols[name]
}

// Lookup walks outwards and returns the first symbol bound to name.
func (s *Scope) Lookup(name string) (*Symbol, *Scope) {
	for curr := s; curr != nil; curr = curr.Parent {
		if sym, ok := curr.symbols[name]; ok {
			return sym, curr
		}
	}
	return nil, nil
}

// Symbols returns the local symbols in declaration order.
func (s *Scope) Symbols() []*Symbol {
	out := make([]*Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.symbols[name])
	}
	return out
}

// declare is idempotent: a name already present is returned as is, unless
// it was an Unknown placeholder, which is upgraded in place.
func (s *Scope) declare(kind SymbolKind, name string, node Node, mutable bool) *Symbol {
	if sym, ok := s.symbols[name]; ok {
		if sym.Kind == SymUnknown && kind != SymUnknown {
			sym.Kind = kind
			sym.Decl = node
			sym.Mutable = mutable
		}
		return sym
	}
	sym := &Symbol{Kind: kind, Name: name, Mutable: mutable, Type: decl.UnknownType, Decl: node}
	s.symbols[name] = sym
	s.order = append(s.order, name)
	return sym
}

func (s *Scope) AddIdentifier(name string, node Node, mutable bool) *Symbol {
	return s.declare(SymIdentifier, name, node, mutable)
}

func (s *Scope) AddFunction(name string, node Node) *Symbol {
	return s.declare(SymFunction, name, node, false)
}

func (s *Scope) AddEntity(name string, node Node) *Symbol {
	return s.declare(SymEntity, name, node, false)
}

func (s *Scope) AddUnknown(name string, node Node) *Symbol {
	return s.declare(SymUnknown, name, node, false)
}

// SymbolTable holds every scope of a unit keyed by scope id.
type SymbolTable struct {
	scopes map[ScopeID]*Scope
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{scopes: map[ScopeID]*Scope{}}
}

// Open returns the scope with the given id, creating it under parent on
// first use.
func (t *SymbolTable) Open(id, parent ScopeID, owner Node) *Scope {
	if s, ok := t.scopes[id]; ok {
		return s
	}
	s := newScope(id, t.scopes[parent], owner)
	t.scopes[id] = s
	return s
}

// Scope returns the scope for id, nil if it was never opened.
func (t *SymbolTable) Scope(id ScopeID) *Scope {
	return t.scopes[id]
}

// Lookup resolves name starting at scope id.
func (t *SymbolTable) Lookup(id ScopeID, name string) *Symbol {
	s := t.scopes[id]
	if s == nil {
		return nil
	}
	sym, _ := s.Lookup(name)
	return sym
}

func (t *SymbolTable) Len() int {
	return len(t.scopes)
}
