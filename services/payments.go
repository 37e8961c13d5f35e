package services

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// PaymentGateway simulates an external payment authorization service. It
// always yields a definite outcome; a declined authorization is a business
// result, never an error.
type PaymentGateway struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
}

// NewPaymentGateway returns a gateway with the stand-in production profile:
// 90% approvals, 0.5-1s of simulated processing latency.
func NewPaymentGateway() *PaymentGateway {
	return NewPaymentGatewayWithProfile(0.9, 500*time.Millisecond, time.Second)
}

// NewPaymentGatewayWithProfile allows tests to pin the outcome and drop the
// latency.
func NewPaymentGatewayWithProfile(successRate float64, minDelay, maxDelay time.Duration) *PaymentGateway {
	return &PaymentGateway{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: successRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
	}
}

// Authorize runs one simulated authorization and reports approval. The delay
// respects ctx cancellation; a cancelled authorization counts as declined.
func (g *PaymentGateway) Authorize(ctx context.Context, donorID string, amount float64) bool {
	g.mu.Lock()
	delay := g.minDelay
	if g.maxDelay > g.minDelay {
		delay += time.Duration(g.rng.Int63n(int64(g.maxDelay - g.minDelay)))
	}
	approved := g.rng.Float64() < g.successRate
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false
		}
	}

	return approved
}
