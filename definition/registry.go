package definition

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/lazylists/errors"
	"github.com/kbukum/lazylists/logger"
	"github.com/kbukum/lazylists/pipeline"
)

// Builder appends the operator declared by s to p. Named functions are
// looked up through fns.
type Builder func(p *pipeline.Pipeline, s Stage, fns *Registry) (*pipeline.Pipeline, error)

// params is the set of Stage parameters an operator accepts.
type params uint16

const (
	pFn params = 1 << iota
	pKey
	pKeys
	pN
	pValue
	pSeed
	pMatch
	pDesc
	pAll params = 1<<iota - 1
)

type operator struct {
	spec  paramSpec
	build Builder
}

// Function kinds, as reported by UNKNOWN_FUNCTION errors.
const (
	KindMap        = "map"
	KindAwait      = "await"
	KindPredicate  = "predicate"
	KindKey        = "key"
	KindEntry      = "entry"
	KindReducer    = "reducer"
	KindComparator = "comparator"
)

// Registry provides named operators and functions for compiling definitions.
type Registry struct {
	mu          sync.RWMutex
	ops         map[string]operator
	maps        map[string]pipeline.MapFunc
	awaits      map[string]pipeline.AwaitFunc
	predicates  map[string]pipeline.Predicate
	keys        map[string]pipeline.KeyFunc
	entries     map[string]pipeline.EntryFunc
	reducers    map[string]pipeline.ReduceFunc
	comparators map[string]pipeline.Comparator
	loader      Loader
	log         *logger.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLoader sets the loader used to resolve include stages.
func WithLoader(l Loader) RegistryOption {
	return func(r *Registry) { r.loader = l }
}

// WithLogger sets the logger used by peek stages without a function.
func WithLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// NewRegistry creates a Registry with every catalog operator registered
// and no functions.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		ops:         make(map[string]operator),
		maps:        make(map[string]pipeline.MapFunc),
		awaits:      make(map[string]pipeline.AwaitFunc),
		predicates:  make(map[string]pipeline.Predicate),
		keys:        make(map[string]pipeline.KeyFunc),
		entries:     make(map[string]pipeline.EntryFunc),
		reducers:    make(map[string]pipeline.ReduceFunc),
		comparators: make(map[string]pipeline.Comparator),
		log:         logger.Get("definition"),
	}
	for name, op := range catalog() {
		r.ops[name] = op
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces an operator. Custom operators accept every
// Stage parameter.
func (r *Registry) Register(name string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[name] = operator{spec: paramSpec{accepts: pAll}, build: b}
}

// RegisterFunc adds a map function.
func (r *Registry) RegisterFunc(name string, fn pipeline.MapFunc) {
	register(r, r.maps, name, fn)
}

// RegisterAwait adds a context-aware map function.
func (r *Registry) RegisterAwait(name string, fn pipeline.AwaitFunc) {
	register(r, r.awaits, name, fn)
}

// RegisterPredicate adds a predicate.
func (r *Registry) RegisterPredicate(name string, fn pipeline.Predicate) {
	register(r, r.predicates, name, fn)
}

// RegisterKey adds a key function.
func (r *Registry) RegisterKey(name string, fn pipeline.KeyFunc) {
	register(r, r.keys, name, fn)
}

// RegisterEntry adds an entry function for toObject and toMap.
func (r *Registry) RegisterEntry(name string, fn pipeline.EntryFunc) {
	register(r, r.entries, name, fn)
}

// RegisterReducer adds a reducer for reduce and scan.
func (r *Registry) RegisterReducer(name string, fn pipeline.ReduceFunc) {
	register(r, r.reducers, name, fn)
}

// RegisterComparator adds a comparator for sort, min and max.
func (r *Registry) RegisterComparator(name string, fn pipeline.Comparator) {
	register(r, r.comparators, name, fn)
}

func register[F any](r *Registry, m map[string]F, name string, fn F) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m[name] = fn
}

func lookup[F any](r *Registry, m map[string]F, kind, name string) (F, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := m[name]
	if !ok {
		var zero F
		return zero, errors.UnknownFunction(kind, name)
	}
	return fn, nil
}

// Map returns the map function registered under name.
func (r *Registry) Map(name string) (pipeline.MapFunc, error) {
	return lookup(r, r.maps, KindMap, name)
}

// Await returns the await function registered under name. A map
// function of the same name is accepted too.
func (r *Registry) Await(name string) (pipeline.AwaitFunc, error) {
	if fn, err := lookup(r, r.awaits, KindAwait, name); err == nil {
		return fn, nil
	}
	m, err := lookup(r, r.maps, KindAwait, name)
	if err != nil {
		return nil, err
	}
	return func(_ context.Context, v any) (any, error) { return m(v) }, nil
}

// Predicate returns the predicate registered under name.
func (r *Registry) Predicate(name string) (pipeline.Predicate, error) {
	return lookup(r, r.predicates, KindPredicate, name)
}

// Key returns the key function registered under name. A map function of
// the same name is accepted too.
func (r *Registry) Key(name string) (pipeline.KeyFunc, error) {
	if fn, err := lookup(r, r.keys, KindKey, name); err == nil {
		return fn, nil
	}
	m, err := lookup(r, r.maps, KindKey, name)
	if err != nil {
		return nil, err
	}
	return pipeline.KeyFunc(m), nil
}

// Entry returns the entry function registered under name.
func (r *Registry) Entry(name string) (pipeline.EntryFunc, error) {
	return lookup(r, r.entries, KindEntry, name)
}

// Reducer returns the reducer registered under name.
func (r *Registry) Reducer(name string) (pipeline.ReduceFunc, error) {
	return lookup(r, r.reducers, KindReducer, name)
}

// Comparator returns the comparator registered under name.
func (r *Registry) Comparator(name string) (pipeline.Comparator, error) {
	return lookup(r, r.comparators, KindComparator, name)
}

func (r *Registry) operator(name string) (operator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// Operators returns the sorted names of all registered operators.
func (r *Registry) Operators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
