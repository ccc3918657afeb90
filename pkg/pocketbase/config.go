// Package pocketbase provides a Go client for the PocketBase REST API:
// collection record CRUD, password authentication and file URLs.
package pocketbase

import "time"

// DefaultURL is the address of a locally running PocketBase.
const DefaultURL = "http://localhost:8090"

// Default client settings.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 500 * time.Millisecond
)

// Config holds all configuration for the PocketBase client.
type Config struct {
	// BaseURL is the PocketBase server root, e.g. http://localhost:8090.
	BaseURL string

	// Timeout is the HTTP client timeout for each request.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for idempotent
	// requests (GET, DELETE).
	MaxRetries int

	// RetryDelay is the initial delay between retries (exponential backoff applied).
	RetryDelay time.Duration
}

// DefaultConfig returns a Config pointing at a local PocketBase.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultURL,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// WithBaseURL returns a copy of the config with the specified server URL.
func (c Config) WithBaseURL(url string) Config {
	c.BaseURL = url
	return c
}

// WithTimeout returns a copy of the config with the specified timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}

// WithRetries returns a copy of the config with the specified retry settings.
func (c Config) WithRetries(maxRetries int, retryDelay time.Duration) Config {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
	return c
}
