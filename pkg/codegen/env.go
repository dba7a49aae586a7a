package codegen

// Env maps symbol names to stack-slot indices. It is persistent: Bind
// allocates a fresh chain head and never touches its parent, so the snapshot
// a child scope receives can never leak bindings back into the enclosing
// scope or across sibling subtrees.
type Env struct {
	name   string
	slot   int
	parent *Env
}

// EmptyEnv is the environment of a top-level program.
var EmptyEnv *Env

// Bind returns a new environment extending e with name at slot. The newest
// binding for a name shadows any older one.
func (e *Env) Bind(name string, slot int) *Env {
	return &Env{name: name, slot: slot, parent: e}
}

// Lookup resolves name to its stack-slot index.
func (e *Env) Lookup(name string) (int, bool) {
	for env := e; env != nil; env = env.parent {
		if env.name == name {
			return env.slot, true
		}
	}
	return 0, false
}

// Bound reports whether name is bound at all, without resolving it.
func (e *Env) Bound(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}
