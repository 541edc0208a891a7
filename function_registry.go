package overlay

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

var registrySeq atomic.Uint64

// Function is a helper callable from combiner expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry stores helper functions keyed by case-insensitive name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	id        uint64
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		id:        registrySeq.Add(1),
		functions: make(map[string]Function),
	}
}

// Register stores fn under name, rejecting empty names, nil functions and
// duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("overlay: function %q is nil", name)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("overlay: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("overlay: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.functions[strings.ToLower(name)]
	return ok
}

// Clone returns a shallow copy so combiners are isolated from later
// registrations.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		id:        registrySeq.Add(1),
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("overlay: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("overlay: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns the registered (lower-cased) names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// scope identifies this registry instance in program cache keys. Compiled
// programs bind the registry's functions, so they cannot be shared across
// registries.
func (r *FunctionRegistry) scope() string {
	if r == nil {
		return ""
	}
	return "fn" + strconv.FormatUint(r.id, 10)
}

// callByName adapts the registry to the variadic `call(name, args...)` helper
// exposed by every expression engine.
func (r *FunctionRegistry) callByName(params ...any) (any, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("overlay: call requires a function name")
	}
	name, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("overlay: call name must be a string, got %T", params[0])
	}
	return r.Call(name, params[1:]...)
}
