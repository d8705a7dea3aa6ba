package retry

import (
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryConfig configures retry behaviour for idempotent outbound calls.
// Attempts of 1 means a single try with no retries.
type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"1"`
	Delay    time.Duration `env:"DELAY" envDefault:"100ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"2s"`
}

func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	attempts := rc.Attempts
	if attempts == 0 {
		// retry-go treats 0 as "retry forever"; an unset config means one try
		attempts = 1
	}
	return []retry.Option{
		retry.Attempts(attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.LastErrorOnly(true),
	}
}
