package loader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/panyam/ohscript/core"
	"github.com/panyam/ohscript/decl"
)

var (
	ErrUnitNotFound  = errors.New("unit not found")
	ErrImportCycle   = errors.New("circular import")
	ErrNotAnalyzable = errors.New("unit has no script")
)

// Unit is one compilation unit: a script, its symbols and what analysis
// found out about it.
type Unit struct {
	Name    string
	Script  *decl.Script
	Symbols *SymbolTable

	// Names the unit exports with their inferred types.
	Exports map[string]*Type

	// Ids of every lock block in the unit, gathered while symbolizing.
	LockSites []NodeID

	Diagnostics []*Diagnostic
	Analyzed    bool

	// Passes the analyzer needed to reach a fixed point.
	Passes int
}

// Failed is true once analysis ran and reported anything.
func (u *Unit) Failed() bool {
	return u.Analyzed && len(u.Diagnostics) > 0
}

// Err returns an *AnalysisError describing the unit's diagnostics, or nil.
func (u *Unit) Err() error {
	if !u.Failed() {
		return nil
	}
	return &AnalysisError{Unit: u.Name, Diagnostics: u.Diagnostics}
}

// ScriptResolver finds the script for a unit name.
type ScriptResolver interface {
	Resolve(name string) (*decl.Script, error)
}

// Loader resolves units by name, analyzes them and their imports, and
// caches the results. It is also the ExportSource analyzers use for
// import statements.
type Loader struct {
	MaxPasses int
	MaxErrors int
	Logger    core.Logger

	resolver ScriptResolver

	mu      sync.Mutex
	units   map[string]*Unit
	pending map[string]bool
}

func NewLoader(resolver ScriptResolver, maxPasses int) *Loader {
	if maxPasses <= 0 {
		maxPasses = core.DefaultMaxInferPasses
	}
	return &Loader{
		MaxPasses: maxPasses,
		Logger:    core.Log().Named("loader"),
		resolver:  resolver,
		units:     map[string]*Unit{},
		pending:   map[string]bool{},
	}
}

// Add registers an already built script as a unit, replacing any unit of
// the same name. It is analyzed on first Load.
func (l *Loader) Add(name string, script *decl.Script) *Unit {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := &Unit{Name: name, Script: script}
	l.units[name] = u
	return u
}

// Unit returns a unit known to the loader without loading it.
func (l *Loader) Unit(name string) *Unit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.units[name]
}

// Load resolves and analyzes a unit and, through its imports, everything
// it depends on. Analysis diagnostics are not an error here: they are
// recorded on the unit.
func (l *Loader) Load(name string) (*Unit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(name)
}

// Check loads a unit and fails with an *AnalysisError if it has any
// diagnostics.
func (l *Loader) Check(name string) (*Unit, error) {
	u, err := l.Load(name)
	if err != nil {
		return nil, err
	}
	return u, u.Err()
}

// Exports returns the export table of a unit, loading it if needed.
func (l *Loader) Exports(source string) (map[string]*Type, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exports(source)
}

func (l *Loader) load(name string) (*Unit, error) {
	u := l.units[name]
	if u != nil && u.Analyzed {
		return u, nil
	}
	if l.pending[name] {
		return nil, fmt.Errorf("%w: '%s' is already being loaded", ErrImportCycle, name)
	}
	if u == nil {
		if l.resolver == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, name)
		}
		script, err := l.resolver.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve unit '%s': %w", name, err)
		}
		u = &Unit{Name: name, Script: script}
		l.units[name] = u
	}
	if u.Script == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAnalyzable, name)
	}

	l.pending[name] = true
	defer delete(l.pending, name)

	a := NewAnalyzer(u, exportsOf{l})
	a.MaxPasses = l.MaxPasses
	a.MaxErrors = l.MaxErrors
	a.Logger = l.Logger
	a.Analyze()
	u.Passes = a.Passes
	return u, nil
}

func (l *Loader) exports(source string) (map[string]*Type, error) {
	u, err := l.load(source)
	if err != nil {
		return nil, err
	}
	if err := u.Err(); err != nil {
		return nil, err
	}
	if u.Exports == nil {
		return map[string]*Type{}, nil
	}
	return u.Exports, nil
}

// exportsOf serves imports while the loader lock is already held by the
// unit being analyzed.
type exportsOf struct{ l *Loader }

func (e exportsOf) Exports(source string) (map[string]*Type, error) {
	return e.l.exports(source)
}
