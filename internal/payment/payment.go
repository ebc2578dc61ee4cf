// internal/payment/payment.go
package payment

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"funnelgate/internal/config"
	"funnelgate/internal/logger"
)

// metadata key recording which funnel a session paid for
const funnelMetadataKey = "funnel_type"

// LineItem is one purchasable row submitted to the provider.
// UnitAmount is in minor currency units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
	Currency   string
}

// CreateSessionInput describes one hosted-checkout session request.
type CreateSessionInput struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Funnel     string
}

// Session is the provider-owned checkout session, reduced to the fields
// this system consumes.
type Session struct {
	ID          string
	URL         string
	Paid        bool
	Funnel      string
	AmountTotal int64
}

// Service is the checkout session service contract. The provider owns the
// session; we only relay identifiers and read payment status back.
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}

// StripeService implements Service against the Stripe API.
type StripeService struct {
	api *client.API
}

// NewStripeService builds a provider client from configuration. A non-empty
// APIBase points the client at an alternate endpoint (mock server in tests).
func NewStripeService(cfg config.ProviderConfig) *StripeService {
	api := &client.API{}

	if cfg.APIBase != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL: stripe.String(cfg.APIBase),
		})
		api.Init(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	} else {
		api.Init(cfg.SecretKey, nil)
	}

	return &StripeService{api: api}
}

func (s *StripeService) CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
		LineItems:  buildStripeLineItems(input.LineItems),
	}
	params.Context = ctx
	if input.Funnel != "" {
		params.AddMetadata(funnelMetadataKey, input.Funnel)
	}

	logger.LogInfo("Creating checkout session (%d line items, funnel=%s)", len(input.LineItems), input.Funnel)
	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}

	return fromStripeSession(sess), nil
}

func (s *StripeService) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieving checkout session %s: %w", id, err)
	}

	return fromStripeSession(sess), nil
}

func buildStripeLineItems(items []LineItem) []*stripe.CheckoutSessionLineItemParams {
	out := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		out = append(out, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(item.Currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	return out
}

func fromStripeSession(sess *stripe.CheckoutSession) *Session {
	return &Session{
		ID:          sess.ID,
		URL:         sess.URL,
		Paid:        sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Funnel:      sess.Metadata[funnelMetadataKey],
		AmountTotal: sess.AmountTotal,
	}
}
