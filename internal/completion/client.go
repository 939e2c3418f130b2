// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/innerbloo/RALLY-sub001/internal/model"
	"github.com/innerbloo/RALLY-sub001/internal/persona"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the completion client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeService
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeUnreachable, Message: "completion service is unreachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "completion request timed out"}
)

// IsUnreachable checks if an error indicates the service could not be reached.
func IsUnreachable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnreachable
	}
	return errors.Is(err, ErrUnreachable)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the completion client.
type ClientConfig struct {
	// BaseURL is the completion service base URL.
	// Note: explicit IPv4 address instead of localhost to avoid IPv6
	// resolution issues on Windows.
	BaseURL string

	// ChunkTimeout is the maximum silence allowed between stream chunks
	// before the request is treated as failed (default: 60s).
	ChunkTimeout time.Duration

	// RetryDelay between retry attempts (default: 1s).
	RetryDelay time.Duration

	// RequestsPerSecond caps the outgoing request rate. Protects a shared
	// backend from a runaway send loop (default: 2).
	RequestsPerSecond float64
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "http://127.0.0.1:11434",
		ChunkTimeout:      60 * time.Second,
		RetryDelay:        1 * time.Second,
		RequestsPerSecond: 2,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// ChunkFunc is called for each chunk received during streaming.
// Chunks arrive synchronously in the order the service emitted them.
type ChunkFunc func(chunk StreamChunk)

// Client streams persona replies from the completion service.
// Thread-safe for concurrent use; the rate limiter is shared across rooms.
type Client struct {
	config  *ClientConfig
	limiter *rate.Limiter
}

// NewClient creates a completion client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a completion client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:11434"
	}
	if config.ChunkTimeout == 0 {
		config.ChunkTimeout = 60 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 1 * time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 2
	}

	return &Client{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}
}

// =============================================================================
// STREAMING SEND
// =============================================================================

// Send posts the model-visible transcript under the given persona policy and
// calls the callback for each text increment, in arrival order.
//
// The retry budget comes from policy.MaxRetries and only applies while the
// stream has delivered nothing yet: once the caller has seen a chunk, a
// broken stream is a failure, not a retry, since replaying delivered text
// would violate ordering for the caller.
func (c *Client) Send(ctx context.Context, history []model.Message, policy persona.Policy, localUserID int, callback ChunkFunc) error {
	attempts := policy.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.config.RetryDelay):
			case <-ctx.Done():
				return ErrTimeout
			}
		}

		delivered := false
		err := c.sendOnce(ctx, history, policy, localUserID, func(chunk StreamChunk) {
			delivered = true
			callback(chunk)
		})
		if err == nil {
			return nil
		}
		if delivered || ctx.Err() != nil {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// sendOnce performs a single streaming request with no retry.
func (c *Client) sendOnce(ctx context.Context, history []model.Message, policy persona.Policy, localUserID int, callback ChunkFunc) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return ErrTimeout
	}

	reqBody := ChatRequest{
		Messages:    TranscriptMessages(history, localUserID),
		System:      policy.SystemInstruction,
		Temperature: policy.Temperature,
		Stream:      true,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	// Use a client without timeout for streaming; overall lifetime is bounded
	// by the context and per-chunk silence by the stream reader.
	streamClient := &http.Client{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrTimeout
		}
		return ErrUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var svcErr serviceError
		if err := json.NewDecoder(resp.Body).Decode(&svcErr); err == nil && svcErr.Error != "" {
			msg := svcErr.Error
			if svcErr.Details != "" {
				msg += ": " + svcErr.Details
			}
			return &ClientError{Type: ErrTypeService, Message: msg}
		}
		return &ClientError{
			Type:    ErrTypeService,
			Message: "completion request failed: " + resp.Status,
		}
	}

	reader := NewStreamReader(resp.Body, c.config.ChunkTimeout)
	return reader.Process(ctx, callback)
}

// SendChan is the channel variant of Send. The channel is closed when
// streaming completes; an error is delivered as the final chunk with the
// Error field set.
func (c *Client) SendChan(ctx context.Context, history []model.Message, policy persona.Policy, localUserID int) <-chan StreamChunk {
	ch := make(chan StreamChunk)

	go func() {
		defer close(ch)

		err := c.Send(ctx, history, policy, localUserID, func(chunk StreamChunk) {
			select {
			case ch <- chunk:
			case <-ctx.Done():
			}
		})

		if err != nil {
			select {
			case ch <- StreamChunk{Error: err, Done: true}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}
