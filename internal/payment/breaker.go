// internal/payment/breaker.go
package payment

import (
	"context"

	"github.com/sony/gobreaker/v2"

	"funnelgate/internal/logger"
)

// BreakerService wraps a Service in a circuit breaker so a provider outage
// fails fast instead of tying up request handlers. Calls are never retried;
// each request gets exactly one attempt.
type BreakerService struct {
	inner Service
	cb    *gobreaker.CircuitBreaker[*Session]
}

func NewBreakerService(inner Service) *BreakerService {
	settings := gobreaker.Settings{
		Name: "checkout-provider",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.LogWarn("Circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &BreakerService{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[*Session](settings),
	}
}

func (b *BreakerService) CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error) {
	return b.cb.Execute(func() (*Session, error) {
		return b.inner.CreateSession(ctx, input)
	})
}

func (b *BreakerService) GetSession(ctx context.Context, id string) (*Session, error) {
	return b.cb.Execute(func() (*Session, error) {
		return b.inner.GetSession(ctx, id)
	})
}
