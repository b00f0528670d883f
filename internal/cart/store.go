package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/DPT73/urban-art-project/internal/storage"
)

// EventKind tells observers what changed.
type EventKind int

const (
	EventItemAdded EventKind = iota
	EventItemRemoved
	EventQuantityChanged
	EventCleared
	EventLoaded
	// EventPersistWarning fires when a mutation succeeded in memory but
	// could not be written to durable storage.
	EventPersistWarning
)

// Event describes one store mutation for subscribers.
type Event struct {
	Kind   EventKind
	ItemID string
	Err    error
}

// QuantityResult reports what SetQuantity did.
type QuantityResult int

const (
	QuantityUnchanged QuantityResult = iota
	QuantityUpdated
	QuantityRemoved
)

// Store owns the ordered list of line items for one browsing session.
// Mutations run under the mutex and persist before returning; a persist
// failure never rolls back the in-memory state. Observers are notified
// after the lock is released, so they may read back from the store.
type Store struct {
	mu        sync.Mutex
	items     []LineItem
	pending   []Event
	storage   storage.Storage
	observers []func(Event)
}

func NewStore(st storage.Storage) *Store {
	return &Store{storage: st}
}

// Subscribe registers an observer for store mutations.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// flush releases the lock and delivers queued events in order.
func (s *Store) flush() {
	events := s.pending
	s.pending = nil
	observers := s.observers
	s.mu.Unlock()
	for _, e := range events {
		for _, fn := range observers {
			fn(e)
		}
	}
}

// Load rehydrates the cart from durable storage. A missing record yields
// an empty cart. A record whose top-level shape is wrong is wiped and
// replaced with an empty cart; individually invalid elements are dropped
// while the valid ones are kept.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.flush()

	data, err := s.storage.Read(ctx)
	if err != nil {
		if err != storage.ErrNotFound {
			slog.Warn("cart record unreadable, starting empty", "error", err)
		}
		s.items = nil
		s.pending = append(s.pending, Event{Kind: EventLoaded})
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Corrupt record: wipe it so the next load starts clean.
		slog.Warn("cart record corrupt, wiping", "error", err)
		if delErr := s.storage.Delete(ctx); delErr != nil {
			slog.Warn("failed to wipe corrupt cart record", "error", delErr)
		}
		s.items = nil
		s.pending = append(s.pending, Event{Kind: EventLoaded})
		return nil
	}

	items := make([]LineItem, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, el := range raw {
		var li LineItem
		if err := json.Unmarshal(el, &li); err != nil {
			continue
		}
		if li.Validate() != nil || seen[li.ID] {
			continue
		}
		seen[li.ID] = true
		items = append(items, li)
	}
	s.items = items

	if len(items) != len(raw) {
		s.persistLocked(ctx)
	}
	s.pending = append(s.pending, Event{Kind: EventLoaded})
	return nil
}

// Add puts one unit of the product in the cart. An existing line item is
// incremented; a new one is appended with quantity 1.
func (s *Store) Add(ctx context.Context, p Product) error {
	item := LineItem{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Image:       p.Image,
		Price:       p.Price,
		Quantity:    1,
	}
	if err := item.Validate(); err != nil {
		return ErrInvalidItem
	}

	s.mu.Lock()
	defer s.flush()

	for i := range s.items {
		if s.items[i].ID != p.ID {
			continue
		}
		if s.items[i].Quantity+1 > MaxQuantity {
			return ErrQuantityLimit
		}
		s.items[i].Quantity++
		s.persistLocked(ctx)
		s.pending = append(s.pending, Event{Kind: EventItemAdded, ItemID: p.ID})
		return nil
	}

	if len(s.items) >= MaxItems {
		return ErrItemLimit
	}

	s.items = append(s.items, item)
	s.persistLocked(ctx)
	s.pending = append(s.pending, Event{Kind: EventItemAdded, ItemID: p.ID})
	return nil
}

// Remove deletes the matching item. Returns whether a removal occurred.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.flush()
	return s.removeLocked(ctx, id)
}

func (s *Store) removeLocked(ctx context.Context, id string) bool {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persistLocked(ctx)
			s.pending = append(s.pending, Event{Kind: EventItemRemoved, ItemID: id})
			return true
		}
	}
	return false
}

// SetQuantity sets the item's quantity. Zero removes the item; values
// above MaxQuantity are rejected without mutation.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity int) (QuantityResult, error) {
	if quantity < 0 {
		return QuantityUnchanged, ErrInvalidItem
	}
	if quantity > MaxQuantity {
		return QuantityUnchanged, ErrQuantityLimit
	}

	s.mu.Lock()
	defer s.flush()

	if quantity == 0 {
		if s.removeLocked(ctx, id) {
			return QuantityRemoved, nil
		}
		return QuantityUnchanged, ErrItemNotFound
	}

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = quantity
			s.persistLocked(ctx)
			s.pending = append(s.pending, Event{Kind: EventQuantityChanged, ItemID: id})
			return QuantityUpdated, nil
		}
	}
	return QuantityUnchanged, ErrItemNotFound
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.flush()
	s.items = nil
	s.persistLocked(ctx)
	s.pending = append(s.pending, Event{Kind: EventCleared})
}

// Items returns a snapshot copy in display order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total returns the sum of price * quantity over all items.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, li := range s.items {
		total = total.Add(li.Subtotal())
	}
	return total
}

// ItemCount returns the sum of quantities over all items.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, li := range s.items {
		count += li.Quantity
	}
	return count
}

// persistLocked writes the current items to storage. Failures surface as
// a warning event only; the in-memory cart stays authoritative.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.items)
	if err == nil {
		err = s.storage.Write(ctx, data)
	}
	if err != nil {
		slog.Warn("cart persist failed", "error", err)
		s.pending = append(s.pending, Event{Kind: EventPersistWarning, Err: err})
	}
}
