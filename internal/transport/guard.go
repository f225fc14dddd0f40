package transport

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrConnectionThrottled is returned when a connection's rate limiter has
// no tokens left.
var ErrConnectionThrottled = errors.New("matchcore/transport: connection throttled")

// connGuard bounds how much abuse a single misbehaving connection can
// inflict on the registry: a token-bucket limiter caps message rate, and a
// circuit breaker trips once a connection's order submissions fail too
// often (e.g. a client that never sends a valid price), so the registry
// stops paying validation cost for a connection that is clearly broken.
type connGuard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// defaultLimiterRate and defaultLimiterBurst bound a single connection to
// a steady 200 messages/sec with bursts up to 50.
const (
	defaultLimiterRate  = 200
	defaultLimiterBurst = 50
)

func newConnGuard(name string) *connGuard {
	return &connGuard{
		limiter: rate.NewLimiter(rate.Limit(defaultLimiterRate), defaultLimiterBurst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 10 && counts.TotalFailures*2 >= counts.Requests
			},
		}),
	}
}

// Guard runs fn if the connection is neither throttled nor tripped,
// recording the outcome against the breaker either way.
func (g *connGuard) Guard(fn func() error) error {
	if !g.limiter.Allow() {
		return ErrConnectionThrottled
	}
	_, err := g.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}
