package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/clearsight/pos-engine/internal/domain"
	"github.com/sony/gobreaker/v2"
)

const defaultCheckTimeout = 3 * time.Second

// BreakerChecker wraps a Checker with a circuit breaker and per-call timeout
// so a wedged inventory backend fails confirmations fast instead of hanging
// the register. An "unavailable" answer is a valid result, not a failure, and
// does not count against the breaker.
type BreakerChecker struct {
	inner   Checker
	cb      *gobreaker.CircuitBreaker[Availability]
	timeout time.Duration
}

func NewBreakerChecker(inner Checker, timeout time.Duration) *BreakerChecker {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}

	cb := gobreaker.NewCircuitBreaker[Availability](gobreaker.Settings{
		Name:    "inventory-check",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &BreakerChecker{inner: inner, cb: cb, timeout: timeout}
}

func (b *BreakerChecker) Check(ctx context.Context, order *domain.Order) (Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	availability, err := b.cb.Execute(func() (Availability, error) {
		return b.inner.Check(ctx, order)
	})
	if err != nil {
		return Availability{}, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	return availability, nil
}
