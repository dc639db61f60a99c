package remote

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
)

const (
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 10 * time.Second
)

type BreakerConfig struct {
	// MaxFailures is the number of consecutive failed searches that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

// searchBreaker fails catalog searches fast while the register is down.
// Checkout never goes through it.
type searchBreaker struct {
	cb *gobreaker.CircuitBreaker[[]domain.Product]
}

func newSearchBreaker(name string, cfg BreakerConfig, logger *zap.Logger) *searchBreaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = defaultBreakerFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultBreakerTimeout
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not a register failure
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &searchBreaker{cb: gobreaker.NewCircuitBreaker[[]domain.Product](settings)}
}

func (b *searchBreaker) Execute(fn func() ([]domain.Product, error)) ([]domain.Product, error) {
	products, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, domain.NewTransportError("catalog search is temporarily unavailable", err)
	}
	return products, err
}

func (b *searchBreaker) State() gobreaker.State {
	return b.cb.State()
}
