package events

import (
	"context"
	"errors"
	"sync"
)

// ActionHandler handles a published action.
type ActionHandler func(context.Context, Action) error

// Dispatcher allows action publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, action Action) error
	Subscribe(actionType ActionType, handler ActionHandler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[ActionType][]ActionHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[ActionType][]ActionHandler),
	}
}

// Publish synchronously invokes handlers for the action type and for
// AnyAction. Every handler runs; their errors are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, action Action) error {
	d.mu.RLock()
	handlers := append([]ActionHandler{}, d.listeners[action.Type]...)
	handlers = append(handlers, d.listeners[AnyAction]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, action); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given action type.
func (d *inMemoryDispatcher) Subscribe(actionType ActionType, handler ActionHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[actionType] = append(d.listeners[actionType], handler)
}

// Recorder keeps every action it sees, in order.
type Recorder struct {
	mu      sync.Mutex
	actions []Action
}

// Attach subscribes the recorder to all actions on d.
func (r *Recorder) Attach(d Dispatcher) {
	d.Subscribe(AnyAction, func(_ context.Context, action Action) error {
		r.mu.Lock()
		r.actions = append(r.actions, action)
		r.mu.Unlock()
		return nil
	})
}

// Types returns the recorded action types.
func (r *Recorder) Types() []ActionType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ActionType, len(r.actions))
	for i, action := range r.actions {
		out[i] = action.Type
	}
	return out
}

// Actions returns a copy of the recorded actions.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Action(nil), r.actions...)
}
