package payment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"
)

func TestBuildStripeLineItems(t *testing.T) {
	items := []LineItem{
		{Name: "Hormone Assessment", UnitAmount: 4999, Quantity: 1, Currency: "usd"},
		{Name: "Coaching Call", UnitAmount: 7500, Quantity: 2, Currency: "usd"},
	}

	params := buildStripeLineItems(items)
	require.Len(t, params, 2)

	assert.Equal(t, "Hormone Assessment", *params[0].PriceData.ProductData.Name)
	assert.Equal(t, int64(4999), *params[0].PriceData.UnitAmount)
	assert.Equal(t, "usd", *params[0].PriceData.Currency)
	assert.Equal(t, int64(1), *params[0].Quantity)
	assert.Equal(t, int64(2), *params[1].Quantity)
}

func TestFromStripeSession(t *testing.T) {
	sess := &stripe.CheckoutSession{
		ID:            "cs_abc",
		URL:           "https://checkout.example.org/cs_abc",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{"funnel_type": "assessment"},
		AmountTotal:   4999,
	}

	got := fromStripeSession(sess)
	assert.Equal(t, "cs_abc", got.ID)
	assert.True(t, got.Paid)
	assert.Equal(t, "assessment", got.Funnel)
	assert.Equal(t, int64(4999), got.AmountTotal)
}

func TestFromStripeSessionUnpaid(t *testing.T) {
	sess := &stripe.CheckoutSession{
		ID:            "cs_abc",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
	}

	got := fromStripeSession(sess)
	assert.False(t, got.Paid)
	assert.Empty(t, got.Funnel)
}

// failing Service for breaker tests
type failingService struct {
	calls int
}

func (f *failingService) CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error) {
	f.calls++
	return nil, fmt.Errorf("provider outage")
}

func (f *failingService) GetSession(ctx context.Context, id string) (*Session, error) {
	f.calls++
	return nil, fmt.Errorf("provider outage")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingService{}
	svc := NewBreakerService(inner)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.GetSession(ctx, "cs_abc")
		require.Error(t, err)
	}
	assert.Equal(t, 5, inner.calls)

	// breaker is open; the provider is no longer called
	_, err := svc.GetSession(ctx, "cs_abc")
	require.Error(t, err)
	assert.Equal(t, 5, inner.calls)
}
