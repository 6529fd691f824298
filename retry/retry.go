/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package retry runs operations with retries according to backoff policies.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRetryable reports whether an attempt that failed with err may be repeated.
type IsRetryable func(error) bool

// RetryableFunc is a single attempt of an operation.
type RetryableFunc func(ctx context.Context) error

// Policy creates a fresh backoff.BackOff for every DoWithRetry call.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// DoWithRetry calls fn until it succeeds, the policy gives up, ctx is done or the error is not retryable.
// A nil policy means one attempt. A nil isRetryable retries every error.
// notify, if not nil, is called before each retry with the error and the delay.
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, fn RetryableFunc) error {
	if p == nil {
		p = NoRetryPolicy{}
	}
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	var op backoff.Operation = func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, bctx, notify)
}

// PolicyFunc lets a backoff factory act as a Policy.
type PolicyFunc func() backoff.BackOff

func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// NoRetryPolicy means a single attempt without any retries.
type NoRetryPolicy struct{}

func (NoRetryPolicy) NewBackOff() backoff.BackOff {
	return &backoff.StopBackOff{}
}

// ExponentialBackoffPolicy retries with delays growing 1.5 times per attempt, with jitter.
type ExponentialBackoffPolicy struct {
	initialInterval time.Duration
	maxAttempts     int
}

// NewExponentialBackoffPolicy creates an ExponentialBackoffPolicy. maxRetryAttempts <= 0 means no limit.
func NewExponentialBackoffPolicy(initialInterval time.Duration, maxRetryAttempts int) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{initialInterval, maxRetryAttempts}
}

func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.initialInterval
	eb.MaxElapsedTime = 0 // Number of attempts is the only limit.
	return withMaxRetries(eb, p.maxAttempts)
}

// ConstantBackoffPolicy retries with the same delay between attempts.
type ConstantBackoffPolicy struct {
	interval    time.Duration
	maxAttempts int
}

// NewConstantBackoffPolicy creates a ConstantBackoffPolicy. maxRetryAttempts <= 0 means no limit.
func NewConstantBackoffPolicy(interval time.Duration, maxRetryAttempts int) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{interval, maxRetryAttempts}
}

func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	return withMaxRetries(backoff.NewConstantBackOff(p.interval), p.maxAttempts)
}

func withMaxRetries(b backoff.BackOff, maxAttempts int) backoff.BackOff {
	if maxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(maxAttempts))
	}
	b.Reset()
	return b
}

// PolicyName names one of the supported policies, so it can be chosen in a configuration file.
type PolicyName string

// Supported policy names.
const (
	PolicyNameNone        PolicyName = "none"
	PolicyNameConstant    PolicyName = "constant"
	PolicyNameExponential PolicyName = "exponential"
)

// NewPolicy creates a policy by its name.
// The interval is the constant delay or the initial delay of the exponential policy.
func NewPolicy(name PolicyName, interval time.Duration, maxRetryAttempts int) (Policy, error) {
	switch name {
	case PolicyNameNone, "":
		return NoRetryPolicy{}, nil
	case PolicyNameConstant:
		return NewConstantBackoffPolicy(interval, maxRetryAttempts), nil
	case PolicyNameExponential:
		return NewExponentialBackoffPolicy(interval, maxRetryAttempts), nil
	}
	return nil, fmt.Errorf("unknown retry policy %q", name)
}
