package executor

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/request"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolgen"
)

// DefaultRetryOn is the default set of retryable status codes.
var DefaultRetryOn = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Config is the immutable engine configuration.
type Config struct {
	BaseURL string

	// Timeout bounds each attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RetryBackoff is the base delay; attempt n waits RetryBackoff * 2^(n-1).
	RetryBackoff time.Duration
	RetryOn      []int
	// Jitter randomizes each delay by ±25%.
	Jitter bool
	// Deadline, when positive, bounds the whole call including backoff.
	Deadline time.Duration

	// Concurrency bounds ExecuteBatch; values below 2 run sequentially.
	Concurrency      int
	MaxResponseBytes int64

	DefaultHeaders http.Header
	AuthParams     toolgen.ParamSet
	ArrayStyle     request.ArrayStyle
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:          30 * time.Second,
		MaxRetries:       3,
		RetryBackoff:     time.Second,
		RetryOn:          append([]int(nil), DefaultRetryOn...),
		Concurrency:      1,
		MaxResponseBytes: 10 << 20,
		ArrayStyle:       request.ArrayRepeat,
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries))
	}
	if c.RetryBackoff <= 0 {
		errs = append(errs, fmt.Errorf("retry_backoff must be positive, got %s", c.RetryBackoff))
	}
	if c.Deadline < 0 {
		errs = append(errs, fmt.Errorf("deadline must be >= 0, got %s", c.Deadline))
	}
	if c.MaxResponseBytes < 0 {
		errs = append(errs, fmt.Errorf("max response size must be >= 0, got %d", c.MaxResponseBytes))
	}
	for _, code := range c.RetryOn {
		if code < 100 || code > 599 {
			errs = append(errs, fmt.Errorf("retry status code %d out of range", code))
		}
	}
	switch c.ArrayStyle {
	case "", request.ArrayRepeat, request.ArrayComma:
	default:
		errs = append(errs, fmt.Errorf("array style %q must be repeat or comma", c.ArrayStyle))
	}
	return errors.Join(errs...)
}
