package ops

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Op is a chat command such as /help.
type Op interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args string) (string, error)
}

// DirectOp is implemented by commands whose reply goes to the requesting
// user instead of the chat the command was sent in.
type DirectOp interface {
	Direct() bool
}

// Registry holds chat commands keyed by name.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Op
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Op)}
}

// Register adds a command. Returns an error if the name is already taken.
func (r *Registry) Register(op Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := op.Name()
	if _, exists := r.ops[name]; exists {
		return fmt.Errorf("command already registered: %s", name)
	}
	r.ops[name] = op
	return nil
}

// Get returns the command with the given name, or nil if not found.
func (r *Registry) Get(name string) Op {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ops[name]
}

// List returns all registered commands sorted by name.
func (r *Registry) List() []Op {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Op, len(names))
	for i, name := range names {
		result[i] = r.ops[name]
	}
	return result
}

// RegisterDefaults registers /start, /help and /rate.
func RegisterDefaults(r *Registry, handle string, fetcher QuoteFetcher) error {
	for _, op := range []Op{
		NewStartOp(handle),
		NewHelpOp(handle),
		&RateOp{Fetcher: fetcher},
	} {
		if err := r.Register(op); err != nil {
			return err
		}
	}
	return nil
}
