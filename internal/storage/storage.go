package storage

import (
	"context"
	"errors"
)

// Storage is the durable backend for the single cart record. One named
// entry, opaque bytes; the cart layer owns the JSON shape.
type Storage interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

var ErrNotFound = errors.New("cart record not found")
