// Package registry maps file extensions to the strategies that load them.
//
// A Registry is built once at startup by installing a fixed list of format
// modules, then frozen. After Freeze it is read-only and safe for concurrent
// use.
package registry

import (
	"fmt"
	"slices"
	"strings"

	"github.com/simonhull/eegview/internal/types"
)

// Strategy loads one file format.
type Strategy interface {
	// Name identifies the strategy in logs and error messages.
	Name() string
	// Load parses the file at path. When preload is true the whole signal
	// is read into memory.
	Load(path string, preload bool) (types.Recording, error)
}

// LoadFunc is the signature of a Strategy's Load method.
type LoadFunc func(path string, preload bool) (types.Recording, error)

type funcStrategy struct {
	fn   LoadFunc
	name string
}

func (s funcStrategy) Name() string { return s.name }

func (s funcStrategy) Load(path string, preload bool) (types.Recording, error) {
	return s.fn(path, preload)
}

// NewStrategy wraps fn as a named Strategy.
func NewStrategy(name string, fn LoadFunc) Strategy {
	return funcStrategy{name: name, fn: fn}
}

// Module is implemented by every built-in format package.
type Module interface {
	Register(r *Registry)
}

// Entry is one extension's loading configuration.
type Entry struct {
	Primary  Strategy
	Fallback Strategy // nil unless the format's on-disk structure is ambiguous
	Ext      string
}

// Registry maps normalized extensions to entries.
type Registry struct {
	entries map[string]Entry
	order   []string
	frozen  bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// NormalizeExt lowercases ext and ensures a leading dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Register adds or replaces the entry for ext. The last registration for
// an extension wins, but the extension keeps its original listing position.
// fallback may be nil.
//
// Register panics if primary is nil or the registry is frozen; both are
// programming errors in the startup sequence.
func (r *Registry) Register(ext string, primary, fallback Strategy) {
	if r.frozen {
		panic(fmt.Sprintf("registry: Register(%q) after Freeze", ext))
	}
	if primary == nil {
		panic(fmt.Sprintf("registry: nil primary strategy for %q", ext))
	}

	ext = NormalizeExt(ext)
	if _, exists := r.entries[ext]; !exists {
		r.order = append(r.order, ext)
	}
	r.entries[ext] = Entry{Ext: ext, Primary: primary, Fallback: fallback}
}

// Install registers every module in order and returns r.
func (r *Registry) Install(modules ...Module) *Registry {
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() *Registry {
	r.frozen = true
	return r
}

// Lookup returns the entry for ext, matched case-insensitively.
func (r *Registry) Lookup(ext string) (Entry, bool) {
	e, ok := r.entries[NormalizeExt(ext)]
	return e, ok
}

// Resolve returns the primary strategy for ext.
func (r *Registry) Resolve(ext string) (Strategy, bool) {
	e, ok := r.Lookup(ext)
	if !ok {
		return nil, false
	}
	return e.Primary, true
}

// Fallback returns the fallback strategy for ext, if one is registered.
func (r *Registry) Fallback(ext string) (Strategy, bool) {
	e, ok := r.Lookup(ext)
	if !ok || e.Fallback == nil {
		return nil, false
	}
	return e.Fallback, true
}

// Extensions returns the registered extensions in registration order.
func (r *Registry) Extensions() []string {
	return slices.Clone(r.order)
}

// Entries returns a snapshot of all entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, ext := range r.order {
		out = append(out, r.entries[ext])
	}
	return out
}
