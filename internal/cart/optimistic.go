package cart

import "sync"

// Optimistic keeps the last persisted cart alongside a tentative one so a
// failed write can be rolled back to exactly what the store last accepted.
type Optimistic struct {
	mu        sync.Mutex
	confirmed Cart
	pending   *Cart
}

// NewOptimistic seeds the holder with a confirmed cart.
func NewOptimistic(confirmed Cart) *Optimistic {
	return &Optimistic{confirmed: confirmed}
}

// Propose applies fn to the current view and records the result as pending.
func (o *Optimistic) Propose(fn func(Cart) Cart) Cart {
	o.mu.Lock()
	defer o.mu.Unlock()
	next := fn(o.viewLocked())
	o.pending = &next
	return next
}

// Commit promotes the pending cart to confirmed.
func (o *Optimistic) Commit() Cart {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending != nil {
		o.confirmed = *o.pending
		o.pending = nil
	}
	return o.confirmed
}

// Rollback discards the pending cart and returns the confirmed one.
func (o *Optimistic) Rollback() Cart {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = nil
	return o.confirmed
}

// View returns pending when present, otherwise confirmed.
func (o *Optimistic) View() Cart {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

// Confirmed returns the last committed cart.
func (o *Optimistic) Confirmed() Cart {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.confirmed
}

func (o *Optimistic) viewLocked() Cart {
	if o.pending != nil {
		return *o.pending
	}
	return o.confirmed
}
