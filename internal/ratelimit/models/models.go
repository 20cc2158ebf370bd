// Package models holds the rate limiter's value types.
package models

import (
	"strings"
	"time"
)

// KeyPrefix namespaces bucket keys by what is being limited.
type KeyPrefix string

const (
	KeyPrefixIP KeyPrefix = "ip"
)

// RateLimitKey is "<prefix>:<identifier>:<route>".
type RateLimitKey string

func NewRateLimitKey(prefix KeyPrefix, identifier, route string) RateLimitKey {
	return RateLimitKey(strings.Join([]string{string(prefix), identifier, route}, ":"))
}

func (k RateLimitKey) String() string { return string(k) }

// RateLimitResult is the outcome of one bucket check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}
