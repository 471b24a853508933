package notify

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes the circuit breaker in front of a Sender.
type BreakerConfig struct {
	MaxFailures uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// DefaultBreakerConfig opens after five consecutive failures and probes
// again after thirty seconds.
var DefaultBreakerConfig = BreakerConfig{
	MaxFailures: 5,
	Interval:    time.Minute,
	Timeout:     30 * time.Second,
}

// Breaker stops calling a failing Sender until it recovers. While open,
// SendOTP fails fast with gobreaker.ErrOpenState.
type Breaker struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next.
func NewBreaker(next Sender, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultBreakerConfig.MaxFailures
	}
	st := gobreaker.Settings{
		Name:        "sms-dispatch",
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *Breaker) SendOTP(ctx context.Context, msg OTPMessage) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.SendOTP(ctx, msg)
	})
	return err
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
