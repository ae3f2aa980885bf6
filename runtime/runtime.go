package runtime

import (
	"context"
	"maps"
	"sync"

	"github.com/panyam/ohscript/core"
	"github.com/panyam/ohscript/decl"
	"github.com/panyam/ohscript/loader"
)

// Program is an analyzed unit ready to run. Its lock arena belongs to the
// unit, so every run of it and every importer calling into it share it.
type Program struct {
	Unit  *Unit
	Locks *LockArena
}

// instance is a unit evaluated once for the sake of its importers.
type instance struct {
	once    sync.Once
	exports map[string]*Value
	err     error
}

// Runtime runs units the loader has analyzed. It owns the async executor
// and the host bridge scripts reach through ext:: references.
type Runtime struct {
	Loader   *loader.Loader
	Host     HostBridge
	Executor Executor
	Tracer   *ExecutionTracer
	Logger   core.Logger

	mu        sync.Mutex
	pool      *WorkerPool
	programs  map[string]*Program
	instances map[string]*instance
	arenas    map[Node]*LockArena
}

func NewRuntime(l *loader.Loader) *Runtime {
	return &Runtime{
		Loader:    l,
		Logger:    core.Log().Named("runtime"),
		programs:  map[string]*Program{},
		instances: map[string]*instance{},
		arenas:    map[Node]*LockArena{},
	}
}

// NewRuntimeFromConfig builds a loader over cfg.UnitPath along with a
// runtime whose worker pool has cfg.AsyncWorkers slots.
func NewRuntimeFromConfig(cfg *core.Config) *Runtime {
	l := loader.NewLoader(&loader.FileResolver{Dir: cfg.UnitPath}, cfg.MaxInferPasses)
	r := NewRuntime(l)
	r.Executor = NewWorkerPool(cfg.AsyncWorkers)
	return r
}

func (r *Runtime) executor() Executor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Executor == nil {
		r.pool = NewWorkerPool(core.DefaultAsyncWorkers)
		r.Executor = r.pool
	}
	return r.Executor
}

// Wait blocks until async work the runtime scheduled on its own pool has
// finished. Executors supplied by the caller are theirs to drain.
func (r *Runtime) Wait() {
	r.mu.Lock()
	pool := r.pool
	if p, ok := r.Executor.(*WorkerPool); ok {
		pool = p
	}
	r.mu.Unlock()
	if pool != nil {
		pool.Wait()
	}
}

// Program analyzes name if needed and returns its runnable form. A unit
// with diagnostics fails with an *AnalysisError.
func (r *Runtime) Program(name string) (*Program, error) {
	u, err := r.Loader.Check(name)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.programs[name]; ok {
		if p.Unit == u {
			return p, nil
		}
		delete(r.arenas, Node(p.Unit.Script))
	}
	p := &Program{Unit: u, Locks: r.arenaLocked(u.Script, u.LockSites...)}
	r.programs[name] = p
	return p, nil
}

// arena returns the lock arena of the unit rooted at root.
func (r *Runtime) arena(root Node) *LockArena {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.arenaLocked(root)
}

func (r *Runtime) arenaLocked(root Node, sites ...NodeID) *LockArena {
	a, ok := r.arenas[root]
	if !ok {
		a = NewLockArena(sites...)
		r.arenas[root] = a
	}
	return a
}

// Run evaluates a unit and returns the value of its script: what a top
// level return produced, else the last statement's value. A fault that
// nothing caught is returned as a *Fault.
func (r *Runtime) Run(ctx context.Context, name string) (*Value, error) {
	p, err := r.Program(name)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("running %s (%d lock sites)", name, p.Locks.Len())
	out, _, err := newInterpreter(r, p, ctx).run()
	return out, err
}

// RunScript registers script as unit name and runs it.
func (r *Runtime) RunScript(ctx context.Context, name string, script *decl.Script) (*Value, error) {
	r.Loader.Add(name, script)
	return r.Run(ctx, name)
}

// Exports runs a unit once and returns the values it exports.
func (r *Runtime) Exports(ctx context.Context, name string) (map[string]*Value, error) {
	exports, err := r.exportsOf(ctx, name)
	return maps.Clone(exports), err
}

func (r *Runtime) exportsOf(ctx context.Context, name string) (map[string]*Value, error) {
	r.mu.Lock()
	inst, ok := r.instances[name]
	if !ok {
		inst = &instance{}
		r.instances[name] = inst
	}
	r.mu.Unlock()

	inst.once.Do(func() {
		p, err := r.Program(name)
		if err != nil {
			inst.err = err
			return
		}
		in := newInterpreter(r, p, ctx)
		_, frame, err := in.run()
		if err != nil {
			inst.err = err
			return
		}
		inst.exports = map[string]*Value{}
		for _, n := range in.exported {
			if v, ok := frame.Get(n); ok {
				inst.exports[n] = v
			}
		}
	})
	return inst.exports, inst.err
}
