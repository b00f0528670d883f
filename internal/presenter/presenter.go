// Package presenter projects cart state into view affordances. It holds
// no business logic of its own: every user intent is relayed to the cart
// store and the resulting state is re-rendered.
package presenter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DPT73/urban-art-project/internal/cart"
)

// DefaultDismissAfter is how long a transient notification stays visible.
const DefaultDismissAfter = 3 * time.Second

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Notification struct {
	ID       string
	Message  string
	Severity Severity
}

type LineView struct {
	ID       string
	Name     string
	Image    string
	Quantity int
	Price    string
	Subtotal string
}

type CartView struct {
	Lines []LineView
	Total string
	Empty bool
}

// View is whatever renders the shop UI. Implementations must tolerate
// being called from the goroutine that mutated the store.
type View interface {
	RenderBadge(count int)
	RenderCart(view CartView)
	ShowNotification(n Notification)
	DismissNotification(id string)
}

type Presenter struct {
	store        *cart.Store
	view         View
	dismissAfter time.Duration

	mu      sync.Mutex
	current string // id of the visible notification, one at a time
}

func New(store *cart.Store, view View) *Presenter {
	p := &Presenter{
		store:        store,
		view:         view,
		dismissAfter: DefaultDismissAfter,
	}
	store.Subscribe(p.onEvent)
	return p
}

// SetDismissAfter overrides the notification lifetime (tests).
func (p *Presenter) SetDismissAfter(d time.Duration) {
	p.dismissAfter = d
}

func (p *Presenter) onEvent(e cart.Event) {
	switch e.Kind {
	case cart.EventItemAdded:
		p.Notify("Added to cart", SeverityInfo)
	case cart.EventQuantityChanged:
		// Quantity tweaks re-render without announcing themselves.
	case cart.EventItemRemoved:
		p.Notify("Removed from cart", SeverityInfo)
	case cart.EventPersistWarning:
		p.Notify("Your cart could not be saved and may be lost when you leave", SeverityWarning)
	}
	p.Render()
}

// Render pushes the full cart projection to the view.
func (p *Presenter) Render() {
	items := p.store.Items()
	view := CartView{
		Lines: make([]LineView, 0, len(items)),
		Total: formatAmount(p.store.Total()),
		Empty: len(items) == 0,
	}
	for _, li := range items {
		view.Lines = append(view.Lines, LineView{
			ID:       li.ID,
			Name:     li.Name,
			Image:    li.Image,
			Quantity: li.Quantity,
			Price:    formatAmount(li.Price),
			Subtotal: formatAmount(li.Subtotal()),
		})
	}
	p.view.RenderBadge(p.store.ItemCount())
	p.view.RenderCart(view)
}

// Increment raises the line's quantity by one.
func (p *Presenter) Increment(ctx context.Context, id string) {
	qty, ok := p.quantityOf(id)
	if !ok {
		return
	}
	if _, err := p.store.SetQuantity(ctx, id, qty+1); err != nil {
		p.notifyRejection(err)
	}
}

// Decrement lowers the line's quantity by one; at one it removes the line.
func (p *Presenter) Decrement(ctx context.Context, id string) {
	qty, ok := p.quantityOf(id)
	if !ok {
		return
	}
	if _, err := p.store.SetQuantity(ctx, id, qty-1); err != nil {
		p.notifyRejection(err)
	}
}

// Remove deletes the line entirely.
func (p *Presenter) Remove(ctx context.Context, id string) {
	p.store.Remove(ctx, id)
}

// Add relays an add intent and surfaces limit rejections.
func (p *Presenter) Add(ctx context.Context, product cart.Product) {
	if err := p.store.Add(ctx, product); err != nil {
		p.notifyRejection(err)
	}
}

func (p *Presenter) quantityOf(id string) (int, bool) {
	for _, li := range p.store.Items() {
		if li.ID == id {
			return li.Quantity, true
		}
	}
	return 0, false
}

func (p *Presenter) notifyRejection(err error) {
	switch {
	case errors.Is(err, cart.ErrQuantityLimit):
		p.Notify("Maximum quantity reached for this item", SeverityWarning)
	case errors.Is(err, cart.ErrItemLimit):
		p.Notify("Your cart is full", SeverityWarning)
	case errors.Is(err, cart.ErrItemNotFound):
		// Stale affordance, nothing to tell the user.
	default:
		p.Notify("Something went wrong, please try again", SeverityError)
	}
}

// Notify shows a transient notification, replacing any visible one, and
// schedules its dismissal.
func (p *Presenter) Notify(message string, severity Severity) {
	n := Notification{
		ID:       uuid.New().String(),
		Message:  message,
		Severity: severity,
	}

	p.mu.Lock()
	prev := p.current
	p.current = n.ID
	p.mu.Unlock()

	if prev != "" {
		p.view.DismissNotification(prev)
	}
	p.view.ShowNotification(n)

	time.AfterFunc(p.dismissAfter, func() {
		p.mu.Lock()
		still := p.current == n.ID
		if still {
			p.current = ""
		}
		p.mu.Unlock()
		if still {
			p.view.DismissNotification(n.ID)
		}
	})
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2) + " €"
}
