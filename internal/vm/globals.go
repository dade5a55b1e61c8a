package vm

// GlobalEntry is one named global binding.
type GlobalEntry struct {
	Name string
	Val  Value
}

// Globals is the ordered table of named global bindings. Globals hold
// strong references and act as collection roots alongside the
// register file.
type Globals struct {
	entries []GlobalEntry
	ctx     *Context
}

// Has reports whether name is bound.
func (g *Globals) Has(name string) bool {
	name = normKey(name)
	for i := range g.entries {
		if g.entries[i].Name == name {
			return true
		}
	}
	return false
}

// Get returns the bound value, or nil when name is unbound. The result
// is borrowed, not retained.
func (g *Globals) Get(name string) Value {
	name = normKey(name)
	for i := range g.entries {
		if g.entries[i].Name == name {
			return g.entries[i].Val
		}
	}
	return MakeNil()
}

// Set binds name to a retained copy of v. Rebinding releases the old
// value first; the last write wins.
func (g *Globals) Set(name string, v Value) {
	name = normKey(name)
	for i := range g.entries {
		if g.entries[i].Name == name {
			g.ctx.Release(g.entries[i].Val)
			g.entries[i].Val = g.ctx.Retain(v)
			return
		}
	}
	g.entries = append(g.entries, GlobalEntry{Name: name, Val: g.ctx.Retain(v)})
}

// Len returns the number of bindings.
func (g *Globals) Len() int { return len(g.entries) }

// Entries exposes the bindings for iteration by the collector and
// inspection tooling. The slice is owned by the table; callers must
// not mutate it.
func (g *Globals) Entries() []GlobalEntry { return g.entries }

// releaseAll drops every binding. Used at context teardown.
func (g *Globals) releaseAll() {
	for i := range g.entries {
		g.ctx.Release(g.entries[i].Val)
	}
	g.entries = nil
}
