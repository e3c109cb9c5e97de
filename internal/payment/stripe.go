package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// StripeGateway authorizes charges through the Stripe payment-intents API.
type StripeGateway struct {
	SecretKey string
	BaseURL   string
	Client    *http.Client
	Logger    zerolog.Logger
}

// NewStripeGateway builds a gateway with a bounded request timeout. The
// timeout matters: checkout must abort rather than hang on a silent gateway.
func NewStripeGateway(secretKey, baseURL string, timeout time.Duration, logger zerolog.Logger) *StripeGateway {
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &StripeGateway{
		SecretKey: secretKey,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Client:    &http.Client{Timeout: timeout},
		Logger:    logger,
	}
}

type stripeIntent struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	ClientSecret     string `json:"client_secret"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type stripeError struct {
	Error struct {
		Message       string        `json:"message"`
		PaymentIntent *stripeIntent `json:"payment_intent"`
	} `json:"error"`
}

// Authorize creates and confirms a payment intent in one call.
func (g *StripeGateway) Authorize(ctx context.Context, req AuthorizeRequest) (Result, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountMinorUnits, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("payment_method", req.PaymentMethodRef)
	form.Set("confirm", "true")
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("automatic_payment_methods[allow_redirects]", "never")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.BaseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("build stripe request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.SecretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read stripe response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var intent stripeIntent
		if err := json.Unmarshal(body, &intent); err != nil {
			return Result{}, fmt.Errorf("decode stripe intent: %w", err)
		}
		return g.classify(intent), nil
	case resp.StatusCode == http.StatusPaymentRequired, resp.StatusCode == http.StatusBadRequest:
		var se stripeError
		if err := json.Unmarshal(body, &se); err != nil {
			return Result{}, fmt.Errorf("decode stripe error: %w", err)
		}
		res := Result{Status: StatusDeclined, DeclineReason: se.Error.Message}
		if se.Error.PaymentIntent != nil {
			res.ProviderRef = se.Error.PaymentIntent.ID
		}
		g.Logger.Warn().Str("provider_ref", res.ProviderRef).
			Str("reason", res.DeclineReason).Msg("payment declined")
		return res, nil
	default:
		return Result{}, fmt.Errorf("stripe returned status %d", resp.StatusCode)
	}
}

func (g *StripeGateway) classify(intent stripeIntent) Result {
	res := Result{ProviderRef: intent.ID}
	switch intent.Status {
	case "succeeded":
		res.Status = StatusSucceeded
	case "requires_action", "requires_confirmation":
		res.Status = StatusRequiresAction
		res.ContinuationToken = intent.ClientSecret
	default:
		res.Status = StatusDeclined
		if intent.LastPaymentError != nil {
			res.DeclineReason = intent.LastPaymentError.Message
		}
	}
	return res
}
