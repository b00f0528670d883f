package webhook

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

// mockRecorder captures entries and can be made to fail or panic.
type mockRecorder struct {
	entries []Entry
	err     error
	panics  bool
}

func (m *mockRecorder) Record(_ context.Context, e Entry) error {
	if m.panics {
		panic("recorder exploded")
	}
	m.entries = append(m.entries, e)
	return m.err
}

func eventPayload(id, eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"api_version": %q,
		"type": %q,
		"data": {"object": %s}
	}`, id, stripe.APIVersion, eventType, object))
}

func sign(t *testing.T, payload []byte) string {
	t.Helper()
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestProcess_MissingSignature(t *testing.T) {
	recorder := &mockRecorder{}
	p := NewProcessor(testSecret, recorder)

	_, err := p.Process(context.Background(), eventPayload("evt_1", "checkout.session.completed", "{}"), "")

	assert.ErrorIs(t, err, ErrMissingSignature)
	assert.Empty(t, recorder.entries, "unsigned deliveries must not be dispatched")
}

func TestProcess_NoSecretRejectsEverything(t *testing.T) {
	recorder := &mockRecorder{}
	p := NewProcessor("", recorder)

	// A delivery signed with the empty key would pass verification if
	// the empty secret were used as-is.
	payload := eventPayload("evt_1", "payment_intent.succeeded", `{"id": "pi_1", "amount": 2490}`)
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "",
		Timestamp: time.Now(),
	})

	_, err := p.Process(context.Background(), payload, signed.Header)

	assert.ErrorIs(t, err, ErrNoSecret)
	assert.Empty(t, recorder.entries, "events must never be recorded without a configured secret")
}

func TestProcess_InvalidSignature(t *testing.T) {
	recorder := &mockRecorder{}
	p := NewProcessor(testSecret, recorder)

	payload := eventPayload("evt_1", "checkout.session.completed", "{}")
	_, err := p.Process(context.Background(), payload, "t=123,v1=deadbeef")

	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, recorder.entries)
}

func TestProcess_TamperedPayload(t *testing.T) {
	recorder := &mockRecorder{}
	p := NewProcessor(testSecret, recorder)

	payload := eventPayload("evt_1", "checkout.session.completed", "{}")
	header := sign(t, payload)
	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = ' '

	_, err := p.Process(context.Background(), tampered, header)

	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, recorder.entries)
}

func TestProcess_SessionCompleted(t *testing.T) {
	recorder := &mockRecorder{}
	p := NewProcessor(testSecret, recorder)

	object := `{"id":"cs_test_1","amount_total":2490,"customer_details":{"email":"buyer@example.com"}}`
	payload := eventPayload("evt_1", "checkout.session.completed", object)

	outcome, err := p.Process(context.Background(), payload, sign(t, payload))

	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, "evt_1", entry.EventID)
	assert.Equal(t, "cs_test_1", entry.ObjectID)
	assert.Equal(t, int64(2490), entry.AmountTotal)
	assert.Equal(t, "buyer@example.com", entry.CustomerEmail)
}

func TestProcess_PaymentSucceeded(t *testing.T) {
	recorder := &mockRecorder{}
	p := NewProcessor(testSecret, recorder)

	payload := eventPayload("evt_2", "payment_intent.succeeded", `{"id":"pi_1","amount":2490}`)
	outcome, err := p.Process(context.Background(), payload, sign(t, payload))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "pi_1", recorder.entries[0].ObjectID)
}

func TestProcess_PaymentFailed(t *testing.T) {
	recorder := &mockRecorder{}
	p := NewProcessor(testSecret, recorder)

	object := `{"id":"pi_2","amount":2490,"last_payment_error":{"message":"Your card was declined."}}`
	payload := eventPayload("evt_3", "payment_intent.payment_failed", object)

	outcome, err := p.Process(context.Background(), payload, sign(t, payload))

	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "Your card was declined.", recorder.entries[0].Reason)
}

func TestProcess_UnknownTypeIsAcknowledged(t *testing.T) {
	recorder := &mockRecorder{}
	p := NewProcessor(testSecret, recorder)

	payload := eventPayload("evt_4", "customer.created", `{"id":"cus_1"}`)
	outcome, err := p.Process(context.Background(), payload, sign(t, payload))

	require.NoError(t, err)
	assert.Equal(t, OutcomeUnhandled, outcome)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "customer.created", recorder.entries[0].EventType)
}

func TestProcess_RecorderErrorStillAcknowledges(t *testing.T) {
	recorder := &mockRecorder{err: errors.New("ledger unavailable")}
	p := NewProcessor(testSecret, recorder)

	payload := eventPayload("evt_5", "payment_intent.succeeded", `{"id":"pi_1"}`)
	outcome, err := p.Process(context.Background(), payload, sign(t, payload))

	require.NoError(t, err, "verified events are acknowledged even when recording fails")
	assert.Equal(t, OutcomeSucceeded, outcome)
}

func TestProcess_RecorderPanicStillAcknowledges(t *testing.T) {
	recorder := &mockRecorder{panics: true}
	p := NewProcessor(testSecret, recorder)

	payload := eventPayload("evt_6", "payment_intent.succeeded", `{"id":"pi_1"}`)
	outcome, err := p.Process(context.Background(), payload, sign(t, payload))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome)
}
