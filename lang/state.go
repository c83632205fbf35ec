package lang

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
	"weak"
)

// Handle is a live object that can answer named lookups. Modifier returns
// the value at subpath, and false if the object has no such value.
type Handle interface {
	Modifier(ctx context.Context, subpath, params []string) (string, bool)
}

// HandleFunc adapts a function to the [Handle] interface.
type HandleFunc func(ctx context.Context, subpath, params []string) (string, bool)

// Modifier implements [Handle].
func (f HandleFunc) Modifier(ctx context.Context, subpath, params []string) (string, bool) {
	return f(ctx, subpath, params)
}

// GetModifier looks up subpath on h. It returns false when h is nil.
func GetModifier(ctx context.Context, h Handle, subpath, params []string) (string, bool) {
	if h == nil {
		return "", false
	}

	return h.Modifier(ctx, subpath, params)
}

// Fields is a [Handle] exposing a fixed set of named values. The first
// element of subpath selects the value and the rest apply to it as
// accessors.
type Fields map[string]Variable

// Modifier implements [Handle].
func (f Fields) Modifier(_ context.Context, subpath, params []string) (string, bool) {
	if len(subpath) == 0 {
		return Map(f).String(), true
	}

	v, ok := f[subpath[0]]
	if !ok {
		return "", false
	}

	s, err := v.ValueString(subpath[1:], params)

	return s, err == nil
}

// Retriever finds live objects by name.
type Retriever interface {
	RetrieveNamed(ctx context.Context, name string) (Handle, bool)
}

// Objects is a registry of live objects used as the last step of name
// resolution. Names not registered directly are looked up in each fallback
// [Retriever] in order.
//
// Objects is safe for concurrent use.
type Objects struct {
	mutex    sync.RWMutex
	handles  map[string]Handle
	fallback []Retriever
}

// NewObjects returns an empty registry.
func NewObjects(fallback ...Retriever) *Objects {
	return &Objects{
		handles:  make(map[string]Handle),
		fallback: fallback,
	}
}

// Set registers h under name.
func (o *Objects) Set(name string, h Handle) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.handles[name] = h
}

// Delete removes the object registered under name.
func (o *Objects) Delete(name string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	delete(o.handles, name)
}

// Names returns the registered names in sorted order.
func (o *Objects) Names() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return slices.Sorted(maps.Keys(o.handles))
}

// RetrieveNamed implements [Retriever].
func (o *Objects) RetrieveNamed(ctx context.Context, name string) (Handle, bool) {
	o.mutex.RLock()
	h, ok := o.handles[name]
	fallback := o.fallback
	o.mutex.RUnlock()

	if ok {
		return h, true
	}

	for _, r := range fallback {
		if h, ok := r.RetrieveNamed(ctx, name); ok {
			return h, true
		}
	}

	return nil, false
}

// State carries per-session data across repeated realizations of a
// template: scratch variables written by the global function, the pointer
// position reported by the mouse function, a clock, and a weak reference to
// the current live [Objects].
//
// The objects are held weakly: once the caller drops its last reference the
// State stops resolving names against them.
type State struct {
	mutex    sync.Mutex
	objects  weak.Pointer[Objects]
	scratch  Vars
	template *Template
	clock    func() time.Time
	pointer  Vector
}

// NewState returns a State bound to t, which may be nil.
func NewState(t *Template) *State {
	return &State{template: t, scratch: make(Vars)}
}

// Template returns the bound template.
func (s *State) Template() *Template { return s.template }

// Bind replaces the bound template.
func (s *State) Bind(t *Template) { s.template = t }

// Realize realizes the bound template with s.
func (s *State) Realize(ctx context.Context, env *Env, opts ...Option) (string, error) {
	if s.template == nil {
		return "", nil
	}

	return s.template.Realize(ctx, env, s, opts...)
}

// SetObjects sets the current live objects. Only a weak reference is kept.
func (s *State) SetObjects(o *Objects) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if o == nil {
		s.objects = weak.Pointer[Objects]{}

		return
	}

	s.objects = weak.Make(o)
}

// Objects returns the current live objects, or nil if none were set or they
// have been reclaimed.
func (s *State) Objects() *Objects {
	if s == nil {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.objects.Value()
}

// Set defines a scratch variable.
func (s *State) Set(name string, v Variable) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.scratch[name] = v
}

// Get returns a scratch variable.
func (s *State) Get(name string) (Variable, bool) {
	if s == nil {
		return nil, false
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	v, ok := s.scratch[name]

	return v, ok
}

// Pointer returns the last pointer position.
func (s *State) Pointer() Vector {
	if s == nil {
		return Vector{}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.pointer
}

// SetPointer records the pointer position.
func (s *State) SetPointer(x, y float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.pointer = Vector{x, y}
}

// SetClock replaces the time source used by the time function.
func (s *State) SetClock(clock func() time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.clock = clock
}

// Now returns the current time from the state's clock.
func (s *State) Now() time.Time {
	if s == nil {
		return time.Now()
	}

	s.mutex.Lock()
	clock := s.clock
	s.mutex.Unlock()

	if clock == nil {
		return time.Now()
	}

	return clock()
}

// object resolves name against the live objects.
func (s *State) object(ctx context.Context, name string) (Handle, bool) {
	o := s.Objects()
	if o == nil {
		return nil, false
	}

	return o.RetrieveNamed(ctx, name)
}
