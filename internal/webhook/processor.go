// Package webhook verifies and dispatches signed payment-processor
// events. Verification failures reject the delivery; anything that goes
// wrong after verification is logged and the delivery is still
// acknowledged, so the processor does not redeliver.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrNoSecret         = errors.New("webhook signing secret is not configured")
)

// Outcome is the terminal dispatch classification of one delivery.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeUnhandled Outcome = "unhandled"
)

// Entry is the record handed to the Recorder for one verified event.
type Entry struct {
	EventID       string  `json:"event_id"`
	EventType     string  `json:"event_type"`
	Outcome       Outcome `json:"outcome"`
	ObjectID      string  `json:"object_id,omitempty"`
	AmountTotal   int64   `json:"amount_total,omitempty"`
	CustomerEmail string  `json:"customer_email,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// Recorder is the downstream boundary for verified events. An order
// ledger would implement this; the core ships logging and an audit
// publisher.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

type Processor struct {
	secret   string
	recorder Recorder
}

func NewProcessor(secret string, recorder Recorder) *Processor {
	return &Processor{secret: secret, recorder: recorder}
}

// Process verifies one delivery against the raw body and dispatches it.
// The returned error is non-nil only for rejections (no configured
// secret, missing or invalid signature); every verified event resolves
// to an Outcome.
func (p *Processor) Process(ctx context.Context, payload []byte, sigHeader string) (Outcome, error) {
	// An empty secret would make ConstructEvent verify against the empty
	// key, turning every forged delivery into a "verified" event.
	if p.secret == "" {
		return "", ErrNoSecret
	}
	if sigHeader == "" {
		return "", ErrMissingSignature
	}

	event, err := stripewebhook.ConstructEvent(payload, sigHeader, p.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	outcome := p.dispatch(ctx, event)
	return outcome, nil
}

// dispatch classifies a verified event and records it. Recorder panics
// and errors must not bubble up into the acknowledgment.
func (p *Processor) dispatch(ctx context.Context, event stripe.Event) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("webhook handler panic", "event_id", event.ID, "panic", r)
		}
	}()

	entry := Entry{
		EventID:   event.ID,
		EventType: string(event.Type),
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		entry.Outcome = OutcomeCompleted
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			slog.Error("failed to parse checkout session payload", "event_id", event.ID, "error", err)
		} else {
			entry.ObjectID = session.ID
			entry.AmountTotal = session.AmountTotal
			if session.CustomerDetails != nil {
				entry.CustomerEmail = session.CustomerDetails.Email
			}
		}

	case "payment_intent.succeeded":
		entry.Outcome = OutcomeSucceeded
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			slog.Error("failed to parse payment intent payload", "event_id", event.ID, "error", err)
		} else {
			entry.ObjectID = intent.ID
			entry.AmountTotal = intent.Amount
		}

	case "payment_intent.payment_failed":
		entry.Outcome = OutcomeFailed
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			slog.Error("failed to parse payment intent payload", "event_id", event.ID, "error", err)
		} else {
			entry.ObjectID = intent.ID
			entry.AmountTotal = intent.Amount
			if intent.LastPaymentError != nil {
				entry.Reason = intent.LastPaymentError.Msg
			}
		}

	default:
		entry.Outcome = OutcomeUnhandled
	}

	outcome = entry.Outcome
	if err := p.recorder.Record(ctx, entry); err != nil {
		slog.Error("webhook recorder failed", "event_id", event.ID, "outcome", entry.Outcome, "error", err)
	}
	return outcome
}
