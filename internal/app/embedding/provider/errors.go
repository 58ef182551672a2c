package provider

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

var (
	ErrEmptyText     = errors.New("empty text provided")
	ErrEmptyResponse = errors.New("no embedding data returned")
)

// RetryableError marks a collaborator failure that may succeed on a later attempt
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a rate, quota, or transient server failure.
// Auth failures, malformed requests and caller cancellation are fatal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyText) {
		return false
	}

	var re *RetryableError
	if errors.As(err, &re) {
		return true
	}

	if code := statusCode(err); code != 0 {
		return code == 429 || code == 408 || code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "too many requests", "resource_exhausted", "quota", "rate limit", "unavailable"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func statusCode(err error) int {
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var oErr *openai.APIError
	if errors.As(err, &oErr) {
		return oErr.HTTPStatusCode
	}
	var rErr *openai.RequestError
	if errors.As(err, &rErr) {
		return rErr.HTTPStatusCode
	}
	return 0
}
