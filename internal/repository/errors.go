package repository

import (
	"errors"
	"fmt"
	"time"
)

// ErrSourceUnavailable marks any price-source failure that is not an
// explicit rate limit: non-2xx statuses, timeouts, DNS and connection
// errors. Transient; callers back off and retry.
var ErrSourceUnavailable = errors.New("price source unavailable")

// ErrRateLimited is the sentinel matched by errors.Is for rate-limit
// failures. The concrete error is a *RateLimitedError carrying the retry
// hint.
var ErrRateLimited = errors.New("price source rate limited")

// RateLimitedError is returned when the price source answers with an
// explicit rate-limit signal. RetryAfter is zero when the source gave no
// hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("price source rate limited, retry after %s", e.RetryAfter)
	}
	return "price source rate limited"
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
