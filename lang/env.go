package lang

// This file defines the layered registry an expression name is resolved
// against. The built-in function library is lazily initialized once per
// process via builtinCache and cloned into every Env, so registering or
// overriding functions on one Env never affects another.

import (
	"maps"
	"slices"
	"sync"
)

// Scope is a read-only set of named variables.
type Scope interface {
	Has(name string) bool
	Find(name string) (Variable, bool)
}

// Vars is a [Scope] backed by a map.
type Vars map[string]Variable

// Has reports whether name is defined.
func (v Vars) Has(name string) bool {
	_, ok := v[name]

	return ok
}

// Find returns the variable named name.
func (v Vars) Find(name string) (Variable, bool) {
	x, ok := v[name]

	return x, ok
}

// Env is the registry expression names are resolved against.
//
// Caller variables are consulted first, then globals, then functions (the
// built-in library plus anything added with [Env.Register]). Globals shadow
// functions of the same name.
//
// An Env must not be modified while a template is being realized with it.
type Env struct {
	vars    Scope
	globals Vars
	funcs   map[string]Variable
}

// NewEnv returns an Env with the given caller variables and the built-in
// function library. vars may be nil.
func NewEnv(vars Scope) *Env {
	return &Env{
		vars:    vars,
		globals: make(Vars),
		funcs:   makeBuiltinCache(),
	}
}

// defaultEnv is assigned in init because the builtin library it holds
// refers back to it through nil-Env lookups.
//
//nolint:gochecknoglobals
var defaultEnv func() *Env

func init() {
	defaultEnv = sync.OnceValue(func() *Env { return NewEnv(nil) })
}

// orDefault lets a nil *Env stand for an Env with only the built-in library.
func (e *Env) orDefault() *Env {
	if e == nil {
		return defaultEnv()
	}

	return e
}

// Vars returns the caller variables.
func (e *Env) Vars() Scope { return e.orDefault().vars }

// WithVars returns a copy of e with the caller variables replaced.
func (e *Env) WithVars(vars Scope) *Env {
	c := e.clone()
	c.vars = vars

	return c
}

// WithGlobals returns a copy of e with globals added.
func (e *Env) WithGlobals(globals Vars) *Env {
	c := e.clone()
	maps.Copy(c.globals, globals)

	return c
}

// SetGlobal defines or replaces a global variable.
func (e *Env) SetGlobal(name string, v Variable) { e.globals[name] = v }

// Global returns the global variable named name.
func (e *Env) Global(name string) (Variable, bool) {
	v, ok := e.orDefault().globals[name]

	return v, ok
}

// Register adds functions to e, replacing any with the same name.
func (e *Env) Register(fns ...*Function) *Env {
	for _, f := range fns {
		e.funcs[f.Name] = f
	}

	return e
}

// Function returns the function named name.
func (e *Env) Function(name string) (*Function, bool) {
	f, ok := e.orDefault().funcs[name].(*Function)

	return f, ok
}

// Has reports whether name resolves to anything in e.
func (e *Env) Has(name string) bool {
	_, ok := e.Find(name)

	return ok
}

// Find resolves name against caller variables, globals, and functions,
// in that order.
func (e *Env) Find(name string) (Variable, bool) {
	if v, ok := e.caller(name); ok {
		return v, true
	}

	return e.library(name)
}

func (e *Env) caller(name string) (Variable, bool) {
	if e = e.orDefault(); e.vars == nil {
		return nil, false
	}

	return e.vars.Find(name)
}

func (e *Env) library(name string) (Variable, bool) {
	e = e.orDefault()

	if v, ok := e.globals[name]; ok {
		return v, true
	}

	v, ok := e.funcs[name]

	return v, ok
}

// Names returns every name visible in e in sorted order. Caller variables
// are included only when the [Scope] is a [Vars] map or provides a
// Names method.
func (e *Env) Names() []string {
	e = e.orDefault()

	names := slices.Collect(maps.Keys(e.funcs))
	names = slices.AppendSeq(names, maps.Keys(e.globals))

	switch v := e.vars.(type) {
	case Vars:
		names = slices.AppendSeq(names, maps.Keys(v))
	case interface{ Names() []string }:
		names = append(names, v.Names()...)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

func (e *Env) clone() *Env {
	e = e.orDefault()

	return &Env{
		vars:    e.vars,
		globals: maps.Clone(e.globals),
		funcs:   maps.Clone(e.funcs),
	}
}

// ---------------------------------------------------------------------------
// Built-in library
// ---------------------------------------------------------------------------

// Private singleton cache.
//
//nolint:gochecknoglobals
var (
	builtinCacheOnce sync.Once
	builtinCache     map[string]Variable
)

// makeBuiltinCache returns a clone of the lazily-initialized, process-scoped
// built-in function library.
func makeBuiltinCache() map[string]Variable {
	builtinCacheOnce.Do(func() {
		builtinCache = make(map[string]Variable)

		for _, group := range [][]*Function{
			arithmeticFuncs(),
			logicFuncs(),
			stringFuncs(),
			vectorFuncs(),
			miscFuncs(),
			systemFuncs(),
			extensionFuncs(),
		} {
			for _, f := range group {
				builtinCache[f.Name] = f
			}
		}
	})

	return maps.Clone(builtinCache)
}

// Builtins returns the built-in functions sorted by name.
func Builtins() []*Function {
	cache := makeBuiltinCache()
	out := make([]*Function, 0, len(cache))

	for _, name := range slices.Sorted(maps.Keys(cache)) {
		out = append(out, cache[name].(*Function))
	}

	return out
}
