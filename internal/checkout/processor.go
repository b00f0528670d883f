package checkout

import (
	"context"
	"errors"
)

// SessionLine is one priced line of a processor session request.
// UnitAmount is in minor currency units (cents).
type SessionLine struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// SessionRequest is everything the processor needs to open a hosted
// payment session.
type SessionRequest struct {
	Lines            []SessionLine
	SuccessURL       string
	CancelURL        string
	AllowedCountries []string
	Metadata         map[string]string
}

// Session is the processor-issued handle for one payment attempt.
type Session struct {
	ID            string
	URL           string
	Status        string
	PaymentStatus string
	CustomerEmail string
	AmountTotal   int64
}

// Processor is the payment-processor boundary. Calls are single-shot;
// retries are the caller's problem and this core does not make any.
type Processor interface {
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}

var (
	ErrSessionNotFound       = errors.New("checkout session not found")
	ErrProcessorUnavailable  = errors.New("payment processor unavailable")
	ErrProcessorUnconfigured = errors.New("payment processor is not configured")
)
