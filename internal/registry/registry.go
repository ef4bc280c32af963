// Package registry keeps the cancellation handles of scheduled recurring tasks, keyed by the
// instance that owns them.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrOwnerNotReference = errors.New("task owner must be a non-nil pointer to a non-zero-size value")

// Handle cancels the future firings of a scheduled task. A firing that is already running is
// left to complete. Cancel reports whether this call stopped the task; cancelling an already
// cancelled task is a no-op.
type Handle interface {
	Cancel() bool
}

// Registry maps owners to the handle of the task they scheduled. Owners are compared by
// identity: two distinct pointers to equal values are different owners. Owners must point to a
// non-zero-size value, since zero-size allocations may share one address.
type Registry struct {
	mu      sync.Mutex
	entries map[any]Handle
}

func New() *Registry {
	return &Registry{entries: make(map[any]Handle)}
}

// Register stores the handle for the owner. A handle previously registered by the same owner is
// cancelled and replaced. Pointers to zero-size values are rejected: distinct instances may share
// an address and would collide as owners.
func (r *Registry) Register(owner any, handle Handle) error {
	if v := reflect.ValueOf(owner); !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("%w: got %T", ErrOwnerNotReference, owner)
	}
	if reflect.TypeOf(owner).Elem().Size() == 0 {
		return fmt.Errorf("%w: %T points to a zero-size type", ErrOwnerNotReference, owner)
	}
	if handle == nil {
		return errors.New("handle must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, exists := r.entries[owner]; exists {
		previous.Cancel()
		log.Debug().Str("owner", ownerName(owner)).Msg("Replaced scheduled task handle")
	}
	r.entries[owner] = handle
	return nil
}

// CancelAllOwnedBy cancels the task of every owner matching the predicate and removes it from
// the registry. It returns the number of handles cancelled.
func (r *Registry) CancelAllOwnedBy(predicate func(owner any) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancelled := 0
	for owner, handle := range r.entries {
		if !predicate(owner) {
			continue
		}
		if handle.Cancel() {
			cancelled++
		}
		delete(r.entries, owner)
		log.Info().Str("owner", ownerName(owner)).Msg("Cancelled future scheduled tasks")
	}
	return cancelled
}

// Len returns the number of registered owners
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// OwnedBy matches the given owner instance only
func OwnedBy(owner any) func(any) bool {
	return func(candidate any) bool {
		return candidate == owner
	}
}

// OwnedByType matches every owner with the same dynamic type as example
func OwnedByType(example any) func(any) bool {
	target := reflect.TypeOf(example)
	return func(candidate any) bool {
		return reflect.TypeOf(candidate) == target
	}
}

func ownerName(owner any) string {
	return fmt.Sprintf("%T@%p", owner, owner)
}
