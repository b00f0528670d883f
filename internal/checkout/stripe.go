package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeProcessor implements Processor against the Stripe Checkout
// Sessions API. Outbound calls go through a circuit breaker so a dead
// processor fails fast instead of tying up request handlers; the breaker
// never retries a call.
type StripeProcessor struct {
	breaker *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	stripe.Key = secretKey
	return &StripeProcessor{
		breaker: gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
			Name:    "stripe-checkout",
			Timeout: 30 * time.Second,
		}),
	}
}

func (p *StripeProcessor) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, l := range req.Lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(l.Name),
		}
		if l.Description != "" {
			product.Description = stripe.String(l.Description)
		}
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(l.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(string(stripe.CurrencyEUR)),
				UnitAmount:  stripe.Int64(l.UnitAmount),
				ProductData: product,
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lines,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if len(req.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return session.New(params)
	})
	if err != nil {
		return nil, err
	}
	return toSession(s), nil
}

func (p *StripeProcessor) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return session.Get(id, params)
	})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return toSession(s), nil
}

func toSession(s *stripe.CheckoutSession) *Session {
	email := s.CustomerEmail
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		email = s.CustomerDetails.Email
	}
	return &Session{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: email,
		AmountTotal:   s.AmountTotal,
	}
}
