package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStripeGateway("sk_test_123", srv.URL, time.Second, zerolog.Nop())
}

func TestAuthorizeSucceeded(t *testing.T) {
	var gotIdemKey, gotAmount string
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		gotIdemKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, r.ParseForm())
		gotAmount = r.PostFormValue("amount")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pi_1", "status": "succeeded"})
	})

	res, err := g.Authorize(context.Background(), AuthorizeRequest{
		AmountMinorUnits: 25460,
		Currency:         "INR",
		PaymentMethodRef: "pm_card",
		IdempotencyKey:   "intent-42",
	})
	require.NoError(t, err)
	require.Equal(t, StatusSucceeded, res.Status)
	require.Equal(t, "pi_1", res.ProviderRef)
	require.Equal(t, "intent-42", gotIdemKey)
	require.Equal(t, "25460", gotAmount)
}

func TestAuthorizeRequiresAction(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "pi_2", "status": "requires_action", "client_secret": "pi_2_secret",
		})
	})

	res, err := g.Authorize(context.Background(), AuthorizeRequest{AmountMinorUnits: 100, Currency: "inr"})
	require.NoError(t, err)
	require.Equal(t, StatusRequiresAction, res.Status)
	require.Equal(t, "pi_2_secret", res.ContinuationToken)
}

func TestAuthorizeDeclined(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message":        "Your card was declined.",
				"payment_intent": map[string]any{"id": "pi_3", "status": "requires_payment_method"},
			},
		})
	})

	res, err := g.Authorize(context.Background(), AuthorizeRequest{AmountMinorUnits: 100, Currency: "inr"})
	require.NoError(t, err)
	require.Equal(t, StatusDeclined, res.Status)
	require.Equal(t, "pi_3", res.ProviderRef)
	require.Contains(t, res.DeclineReason, "declined")
}

func TestAuthorizeTimesOut(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pi_4", "status": "succeeded"})
	})
	g.Client.Timeout = 50 * time.Millisecond

	_, err := g.Authorize(context.Background(), AuthorizeRequest{AmountMinorUnits: 100, Currency: "inr"})
	require.Error(t, err)
}
