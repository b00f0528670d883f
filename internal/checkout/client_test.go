package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DPT73/urban-art-project/internal/cart"
	"github.com/DPT73/urban-art-project/internal/presenter"
)

type fakeNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *fakeNavigator) Navigate(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(message string, _ presenter.Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *fakeNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

// testServer counts requests per path so tests can assert which calls
// were (not) made.
type testServer struct {
	*httptest.Server
	mu         sync.Mutex
	configHits int
	createHits int

	configStatus  int
	configBody    interface{}
	createStatus  int
	createBody    interface{}
}

func newTestServer(t *testing.T) *testServer {
	ts := &testServer{
		configStatus: http.StatusOK,
		configBody:   configResponse{PublishableKey: "pk_test_abc"},
		createStatus: http.StatusOK,
		createBody:   sessionResponse{SessionID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.configHits++
		status, body := ts.configStatus, ts.configBody
		ts.mu.Unlock()
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/api/create-checkout-session", func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.createHits++
		status, body := ts.createStatus, ts.createBody
		ts.mu.Unlock()
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	})
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Server.Close)
	return ts
}

func (ts *testServer) hits() (config, create int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.configHits, ts.createHits
}

func someItems() []cart.LineItem {
	return []cart.LineItem{
		{ID: "a", Name: "Print a", Price: decimal.NewFromInt(10), Quantity: 1},
	}
}

func TestInitiateCheckout_EmptyCart(t *testing.T) {
	ts := newTestServer(t)
	nav := &fakeNavigator{}
	notifier := &fakeNotifier{}
	client := NewClient(ts.Client(), ts.URL, nav, notifier)

	err := client.InitiateCheckout(context.Background(), nil)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, "Your cart is empty", notifier.last())

	config, create := ts.hits()
	assert.Zero(t, config, "empty cart must not trigger any network call")
	assert.Zero(t, create)
	assert.Empty(t, nav.urls)
}

func TestInitiateCheckout_Success(t *testing.T) {
	ts := newTestServer(t)
	nav := &fakeNavigator{}
	notifier := &fakeNotifier{}
	client := NewClient(ts.Client(), ts.URL, nav, notifier)

	err := client.InitiateCheckout(context.Background(), someItems())
	require.NoError(t, err)

	require.Len(t, nav.urls, 1)
	assert.Equal(t, "https://pay.example.com/cs_test_1", nav.urls[0])
	assert.Empty(t, notifier.messages)
	assert.False(t, client.Busy())
}

func TestInitiateCheckout_MissingPublishableKey(t *testing.T) {
	ts := newTestServer(t)
	ts.configBody = configResponse{}
	nav := &fakeNavigator{}
	notifier := &fakeNotifier{}
	client := NewClient(ts.Client(), ts.URL, nav, notifier)

	err := client.InitiateCheckout(context.Background(), someItems())

	assert.ErrorIs(t, err, ErrMissingConfig)
	assert.Contains(t, notifier.last(), "Payment is not available")

	_, create := ts.hits()
	assert.Zero(t, create, "config failure must abort before session creation")
	assert.False(t, client.Busy(), "failed attempt must leave the client retryable")
}

func TestInitiateCheckout_ConfigEndpointError(t *testing.T) {
	ts := newTestServer(t)
	ts.configStatus = http.StatusInternalServerError
	nav := &fakeNavigator{}
	notifier := &fakeNotifier{}
	client := NewClient(ts.Client(), ts.URL, nav, notifier)

	err := client.InitiateCheckout(context.Background(), someItems())

	assert.ErrorIs(t, err, ErrMissingConfig)
	assert.Empty(t, nav.urls)
}

func TestInitiateCheckout_ServerErrorMessageSurfaces(t *testing.T) {
	ts := newTestServer(t)
	ts.createStatus = http.StatusBadRequest
	ts.createBody = errorResponse{Error: "items[0].price: must be a positive amount within limits"}
	nav := &fakeNavigator{}
	notifier := &fakeNotifier{}
	client := NewClient(ts.Client(), ts.URL, nav, notifier)

	err := client.InitiateCheckout(context.Background(), someItems())

	assert.ErrorIs(t, err, ErrCheckoutRejected)
	assert.Equal(t, "items[0].price: must be a positive amount within limits", notifier.last())
	assert.Empty(t, nav.urls)
	assert.False(t, client.Busy())
}

func TestInitiateCheckout_GenericMessageWhenServerSaysNothing(t *testing.T) {
	ts := newTestServer(t)
	ts.createStatus = http.StatusInternalServerError
	ts.createBody = map[string]string{}
	nav := &fakeNavigator{}
	notifier := &fakeNotifier{}
	client := NewClient(ts.Client(), ts.URL, nav, notifier)

	err := client.InitiateCheckout(context.Background(), someItems())

	assert.ErrorIs(t, err, ErrCheckoutRejected)
	assert.Equal(t, "Checkout failed, please try again", notifier.last())
}

func TestInitiateCheckout_SecondCallWhileBusyIsNoOp(t *testing.T) {
	ts := newTestServer(t)
	nav := &fakeNavigator{}
	notifier := &fakeNotifier{}
	client := NewClient(ts.Client(), ts.URL, nav, notifier)

	client.busy.Store(true)
	err := client.InitiateCheckout(context.Background(), someItems())
	assert.ErrorIs(t, err, ErrCheckoutInFlight)

	config, create := ts.hits()
	assert.Zero(t, config)
	assert.Zero(t, create)

	client.busy.Store(false)
	require.NoError(t, client.InitiateCheckout(context.Background(), someItems()))
	require.Len(t, nav.urls, 1)
}

func TestInitiateCheckout_RetryAfterFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.createStatus = http.StatusInternalServerError
	ts.createBody = errorResponse{Error: "internal error"}
	nav := &fakeNavigator{}
	notifier := &fakeNotifier{}
	client := NewClient(ts.Client(), ts.URL, nav, notifier)

	require.Error(t, client.InitiateCheckout(context.Background(), someItems()))

	ts.mu.Lock()
	ts.createStatus = http.StatusOK
	ts.createBody = sessionResponse{SessionID: "cs_test_2", URL: "https://pay.example.com/cs_test_2"}
	ts.mu.Unlock()

	require.NoError(t, client.InitiateCheckout(context.Background(), someItems()))
	require.Len(t, nav.urls, 1)
	assert.Equal(t, "https://pay.example.com/cs_test_2", nav.urls[0])
}
