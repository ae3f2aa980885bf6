package runtime

import "sync"

// LockArena hands out one mutex per lock block site of a unit. Sites found
// by the analyzer are registered up front; anything else is created on
// first use.
type LockArena struct {
	guard sync.Mutex
	sites map[NodeID]*sync.Mutex
}

func NewLockArena(sites ...NodeID) *LockArena {
	out := &LockArena{sites: make(map[NodeID]*sync.Mutex, len(sites))}
	for _, id := range sites {
		out.sites[id] = &sync.Mutex{}
	}
	return out
}

// Site returns the mutex for the lock block with the given id.
func (a *LockArena) Site(id NodeID) *sync.Mutex {
	a.guard.Lock()
	defer a.guard.Unlock()
	mu, ok := a.sites[id]
	if !ok {
		mu = &sync.Mutex{}
		a.sites[id] = mu
	}
	return mu
}

// unitRoot is the script a node belongs to, the key of its unit's arena.
func unitRoot(n Node) Node {
	for n.Parent() != nil {
		n = n.Parent()
	}
	return n
}

func (a *LockArena) Len() int {
	a.guard.Lock()
	defer a.guard.Unlock()
	return len(a.sites)
}
