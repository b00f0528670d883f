package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// MaxRequestItems bounds the incoming cart payload server-side,
	// independent of the client's own item limit.
	MaxRequestItems = 50

	// Quantity bounds accepted from the wire.
	minQuantity = 1
	maxQuantity = 100

	// sessionIDPrefix is the prefix every processor session id carries.
	sessionIDPrefix = "cs_"

	maxNameLength     = 200
	maxMetadataLength = 490
)

// MaxPrice is the highest accepted unit price, in EUR.
var MaxPrice = decimal.NewFromInt(10000)

// ItemInput is one line item as submitted by the client. Quantity is
// optional and defaults to one.
type ItemInput struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    *int            `json:"quantity,omitempty"`
}

// CreateSessionRequest is the body of POST /api/create-checkout-session.
type CreateSessionRequest struct {
	Items []ItemInput `json:"items"`
}

// SessionResult is what a successful session creation returns.
type SessionResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// SessionStatus is the minimal, non-sensitive projection of a session.
type SessionStatus struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	CustomerEmail string `json:"customer_email,omitempty"`
	AmountTotal   int64  `json:"amount_total"`
}

// ValidationError carries a machine-readable reason for a rejected
// payload. It is always safe to show to the client.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Service validates cart payloads and turns them into processor sessions.
type Service struct {
	processor Processor
	baseURL   string
	countries []string
}

func NewService(processor Processor, baseURL string, allowedCountries []string) *Service {
	return &Service{
		processor: processor,
		baseURL:   strings.TrimRight(baseURL, "/"),
		countries: allowedCountries,
	}
}

// CreateSession validates the cart payload and opens a processor session.
// Validation failures return a *ValidationError and never reach the
// processor; processor failures are normalized to ErrProcessorUnavailable
// with the underlying detail logged only.
func (s *Service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*SessionResult, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "must be a non-empty array"}
	}
	if len(req.Items) > MaxRequestItems {
		return nil, &ValidationError{Field: "items", Reason: fmt.Sprintf("must not exceed %d items", MaxRequestItems)}
	}

	lines := make([]SessionLine, 0, len(req.Items))
	summary := make([]string, 0, len(req.Items))
	for i, item := range req.Items {
		name := sanitizeName(item.Name)
		if name == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].name", i), Reason: "must not be empty"}
		}
		if !item.Price.IsPositive() || item.Price.GreaterThan(MaxPrice) {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].price", i), Reason: "must be a positive amount within limits"}
		}
		quantity := 1
		if item.Quantity != nil {
			quantity = *item.Quantity
			if quantity < minQuantity || quantity > maxQuantity {
				return nil, &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: fmt.Sprintf("must be an integer between %d and %d", minQuantity, maxQuantity)}
			}
		}

		lines = append(lines, SessionLine{
			Name:        name,
			Description: sanitizeName(item.Description),
			UnitAmount:  toMinorUnits(item.Price),
			Quantity:    int64(quantity),
		})
		summary = append(summary, fmt.Sprintf("%s x%d", name, quantity))
	}

	session, err := s.processor.CreateSession(ctx, &SessionRequest{
		Lines:            lines,
		SuccessURL:       s.baseURL + "/success.html?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        s.baseURL + "/cancel.html",
		AllowedCountries: s.countries,
		Metadata: map[string]string{
			"items": truncate(strings.Join(summary, "; "), maxMetadataLength),
		},
	})
	if err != nil {
		slog.Error("processor session creation failed", "error", err)
		return nil, ErrProcessorUnavailable
	}

	return &SessionResult{SessionID: session.ID, URL: session.URL}, nil
}

// SessionStatus looks up one session and projects its state. Malformed
// ids are rejected before the processor is queried.
func (s *Service) SessionStatus(ctx context.Context, id string) (*SessionStatus, error) {
	if !strings.HasPrefix(id, sessionIDPrefix) {
		return nil, &ValidationError{Field: "sessionId", Reason: "malformed session id"}
	}

	session, err := s.processor.GetSession(ctx, id)
	if err != nil {
		if err == ErrSessionNotFound {
			return nil, ErrSessionNotFound
		}
		slog.Error("processor session lookup failed", "error", err, "session_id", id)
		return nil, ErrProcessorUnavailable
	}

	return &SessionStatus{
		ID:            session.ID,
		Status:        session.Status,
		PaymentStatus: session.PaymentStatus,
		CustomerEmail: session.CustomerEmail,
		AmountTotal:   session.AmountTotal,
	}, nil
}

// toMinorUnits converts a decimal EUR amount to cents, rounded to the
// nearest integer.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// sanitizeName trims, strips markup and control characters, and bounds
// the length. Returns "" when nothing printable is left.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) || r == '<' || r == '>' {
			continue
		}
		b.WriteRune(r)
	}
	return truncate(strings.TrimSpace(b.String()), maxNameLength)
}

// truncate bounds s to max bytes without splitting a rune, so the
// result stays valid UTF-8 on the wire.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
