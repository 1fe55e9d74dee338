// Package authsvc is the HTTP client for the external identity validator.
package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// ErrInvalidToken covers every validation failure the gateway treats the
// same way: bad credential, non-2xx, malformed body, timeout, unreachable
// validator. Callers downgrade to an anonymous principal on this error.
var ErrInvalidToken = errors.New("authsvc: token rejected")

// Claims is the subset of the validator response the gateway uses.
// Some deployments return the identity under "subject" instead of
// "username"; both are accepted.
type Claims struct {
	Username string `json:"username"`
	Subject  string `json:"subject"`
	Role     string `json:"role"`
}

// Name returns the username, falling back to the subject claim.
func (c *Claims) Name() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New builds a validator client. The circuit breaker opens after repeated
// transport failures so a down validator degrades to fast anonymous
// downgrades instead of a per-connection timeout wait.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "authsvc",
			Timeout: 15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				logger.Warn("auth breaker state change",
					"from", from.String(), "to", to.String())
			},
		}),
	}
}

// Validate resolves a bearer token into claims. Every failure mode maps to
// ErrInvalidToken; the caller never distinguishes a timeout from a 401.
func (c *Client) Validate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	res, err := c.breaker.Execute(func() (any, error) {
		return c.validate(ctx, token)
	})
	if err != nil {
		c.logger.Debug("auth validation failed", "error", err)
		return nil, ErrInvalidToken
	}

	claims, _ := res.(*Claims)
	if claims == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Client) validate(ctx context.Context, token string) (*Claims, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/validate", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call validator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		// A definitive rejection is not a transport failure and must
		// not trip the breaker.
		return nil, nil
	}

	claims := &Claims{}
	if err := json.NewDecoder(resp.Body).Decode(claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return claims, nil
}
