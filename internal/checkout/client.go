package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/DPT73/urban-art-project/internal/cart"
	"github.com/DPT73/urban-art-project/internal/presenter"
)

var (
	ErrEmptyCart        = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInFlight = errors.New("checkout already in progress")
	ErrMissingConfig    = errors.New("payment configuration unavailable")
	ErrCheckoutRejected = errors.New("checkout request rejected")
)

// Navigator performs the full-page navigation to the hosted payment page.
type Navigator interface {
	Navigate(url string)
}

// Notifier shows the single user-visible message for a failed attempt.
type Notifier interface {
	Notify(message string, severity presenter.Severity)
}

type configResponse struct {
	PublishableKey string `json:"publishableKey"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client drives one checkout attempt against the shop server. At most
// one attempt is in flight; a second call during that window is a no-op,
// mirroring the disabled checkout button.
type Client struct {
	api      *http.Client
	baseURL  string
	nav      Navigator
	notifier Notifier
	busy     atomic.Bool
	sfg      singleflight.Group // Prevents duplicate config fetches
}

func NewClient(api *http.Client, baseURL string, nav Navigator, notifier Notifier) *Client {
	return &Client{
		api:      api,
		baseURL:  baseURL,
		nav:      nav,
		notifier: notifier,
	}
}

// Busy reports whether a checkout attempt is currently in flight.
func (c *Client) Busy() bool {
	return c.busy.Load()
}

// InitiateCheckout submits the cart snapshot and navigates to the
// processor's hosted page. Every failure path leaves the client idle
// again so the user can retry, and surfaces exactly one notification.
func (c *Client) InitiateCheckout(ctx context.Context, items []cart.LineItem) error {
	if len(items) == 0 {
		c.notifier.Notify("Your cart is empty", presenter.SeverityWarning)
		return ErrEmptyCart
	}

	if !c.busy.CompareAndSwap(false, true) {
		return ErrCheckoutInFlight
	}
	defer c.busy.Store(false)

	if _, err := c.fetchPublishableKey(ctx); err != nil {
		c.notifier.Notify("Payment is not available right now, please try again later", presenter.SeverityError)
		return err
	}

	session, err := c.createSession(ctx, items)
	if err != nil {
		return err
	}

	c.nav.Navigate(session.URL)
	return nil
}

// fetchPublishableKey loads the processor configuration from the server.
// Concurrent callers share one request.
func (c *Client) fetchPublishableKey(ctx context.Context) (string, error) {
	v, err, _ := c.sfg.Do("config", func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/config", nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.api.Do(req)
		if err != nil {
			return nil, fmt.Errorf("config fetch failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, ErrMissingConfig
		}
		var cfg configResponse
		if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("config decode failed: %w", err)
		}
		if cfg.PublishableKey == "" {
			return nil, ErrMissingConfig
		}
		return cfg.PublishableKey, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) createSession(ctx context.Context, items []cart.LineItem) (*sessionResponse, error) {
	body, err := json.Marshal(map[string]interface{}{"items": items})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/create-checkout-session", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.api.Do(req)
	if err != nil {
		c.notifier.Notify("Could not reach the shop, please try again", presenter.SeverityError)
		return nil, fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		message := "Checkout failed, please try again"
		var errResp errorResponse
		if data, readErr := io.ReadAll(resp.Body); readErr == nil {
			if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
				message = errResp.Error
			}
		}
		c.notifier.Notify(message, presenter.SeverityError)
		return nil, fmt.Errorf("%w: %s", ErrCheckoutRejected, message)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		c.notifier.Notify("Checkout failed, please try again", presenter.SeverityError)
		return nil, fmt.Errorf("session decode failed: %w", err)
	}
	return &session, nil
}
