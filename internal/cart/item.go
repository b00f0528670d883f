package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxQuantity is the most units of a single product a cart may hold
	MaxQuantity = 99

	// MaxItems is the most distinct products a cart may hold
	MaxItems = 25

	// MaxNameLength bounds the product name stored in a line item
	MaxNameLength = 200
)

var (
	ErrQuantityLimit = errors.New("quantity limit reached for this item")
	ErrItemLimit     = errors.New("item limit reached for this cart")
	ErrItemNotFound  = errors.New("item not found in cart")
	ErrInvalidItem   = errors.New("invalid line item")
)

// Product is the purchasable thing a caller asks to add to the cart.
// The store owns turning it into a LineItem.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// LineItem is one product entry in the cart with its quantity.
type LineItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Validate checks the invariants every stored line item must satisfy.
func (li LineItem) Validate() error {
	if strings.TrimSpace(li.ID) == "" {
		return errors.New("line item id must not be empty")
	}
	if li.Name == "" || len(li.Name) > MaxNameLength {
		return errors.New("line item name must be 1..200 characters")
	}
	if !li.Price.IsPositive() {
		return errors.New("line item price must be positive")
	}
	if li.Quantity < 1 || li.Quantity > MaxQuantity {
		return errors.New("line item quantity out of range")
	}
	return nil
}

// Subtotal returns price * quantity for this line.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}
