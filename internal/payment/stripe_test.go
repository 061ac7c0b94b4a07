package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testPayload = `{
  "id": "evt_1",
  "object": "event",
  "type": "payment_intent.succeeded",
  "data": {"object": {"id": "pi_123", "object": "payment_intent", "status": "succeeded", "amount": 5000, "currency": "usd"}}
}`

func TestParseWebhookVerifiesSignature(t *testing.T) {
	gw := NewStripe("sk_test_x", "whsec_test")
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(testPayload),
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	ev, err := gw.ParseWebhook(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "payment_intent.succeeded", ev.Type)
	assert.Equal(t, "pi_123", ev.IntentID)
	assert.Equal(t, "succeeded", ev.Status)
}

func TestParseWebhookRejectsForgery(t *testing.T) {
	gw := NewStripe("sk_test_x", "whsec_test")
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(testPayload),
		Secret:    "whsec_other",
		Timestamp: time.Now(),
	})

	_, err := gw.ParseWebhook(signed.Payload, signed.Header)
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = NewStripe("sk_test_x", "").ParseWebhook(signed.Payload, signed.Header)
	assert.ErrorIs(t, err, ErrBadSignature)
}
