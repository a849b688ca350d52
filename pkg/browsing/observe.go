package browsing

import "sync"

// Subscription is the handle returned by every Subscribe-style method.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery. Safe to call more than once and on nil.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

type subscriber[T any] struct {
	fn      func(T)
	removed bool
}

// Registry is an ordered set of observers for values of type T.
// It is owned by a single goroutine like the Session it belongs to.
type Registry[T any] struct {
	subs []*subscriber[T]
}

// Subscribe registers fn and returns its unsubscribe handle.
func (r *Registry[T]) Subscribe(fn func(T)) *Subscription {
	sub := &subscriber[T]{fn: fn}
	r.subs = append(r.subs, sub)
	return &Subscription{cancel: func() { r.remove(sub) }}
}

func (r *Registry[T]) remove(target *subscriber[T]) {
	target.removed = true
	kept := r.subs[:0]
	for _, sub := range r.subs {
		if sub != target {
			kept = append(kept, sub)
		}
	}
	for i := len(kept); i < len(r.subs); i++ {
		r.subs[i] = nil
	}
	r.subs = kept
}

// Publish delivers v to every observer in subscription order. Observers
// removed during delivery are skipped; ones added during delivery wait for
// the next value.
func (r *Registry[T]) Publish(v T) {
	if len(r.subs) == 0 {
		return
	}
	current := make([]*subscriber[T], len(r.subs))
	copy(current, r.subs)
	for _, sub := range current {
		if !sub.removed {
			sub.fn(v)
		}
	}
}

// Len returns the number of observers.
func (r *Registry[T]) Len() int {
	return len(r.subs)
}

// Clear drops every observer.
func (r *Registry[T]) Clear() {
	for _, sub := range r.subs {
		sub.removed = true
	}
	r.subs = nil
}
