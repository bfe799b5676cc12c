package grammar

import "sync"

// Registry is a dialect's name -> Grammar map, populated once at startup
// and treated as read-only state during parsing. Deliberately an explicit
// value passed to the parser rather than a module-level singleton, so
// tests can load alternative dialects side by side.
type Registry struct {
	mu           sync.RWMutex
	name         string
	grammars     map[string]Grammar
	segmentTypes map[string]string
	hints        map[int64]*SimpleHint
}

// NewRegistry creates an empty, named dialect registry.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:         name,
		grammars:     make(map[string]Grammar),
		segmentTypes: make(map[string]string),
		hints:        make(map[int64]*SimpleHint),
	}
}

// Name returns the dialect name this registry was constructed for.
func (r *Registry) Name() string { return r.name }

// Register binds name to g, and optionally to a declared segment type
// used to annotate the Ref node wrapping g's match result. Intended for
// use only during dialect bootstrap, before any parse begins.
func (r *Registry) Register(name string, g Grammar, segmentType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grammars[name] = g
	if segmentType != "" {
		r.segmentTypes[name] = segmentType
	}
}

// Resolve looks up name. A missing name is not an error here — the
// engine turns a failed Resolve into an UnknownSegment at match time, so
// forward references declared later in dialect bootstrap are permitted.
func (r *Registry) Resolve(name string) (Grammar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grammars[name]
	return g, ok
}

// SegmentType returns the declared segment type annotation for name, if
// any was registered.
func (r *Registry) SegmentType(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.segmentTypes[name]
	return t, ok
}

// Names returns every registered grammar name. Intended for diagnostics
// and tests, not for the hot parsing path.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.grammars))
	for n := range r.grammars {
		names = append(names, n)
	}
	return names
}

func (r *Registry) cachedHint(id int64) (*SimpleHint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hints[id]
	return h, ok
}

func (r *Registry) cacheHint(id int64, h *SimpleHint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hints[id] = h
}
