package backend

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled wraps a Translator with a client-side rate limit so a burst of
// jobs cannot exhaust the upstream provider's allowance. Wait blocks until a
// token is available or the context expires.
type Throttled struct {
	inner   Translator
	limiter *rate.Limiter
}

// NewThrottled wraps inner with an rps/burst token bucket. rps <= 0 disables
// throttling.
func NewThrottled(inner Translator, rps, burst int) *Throttled {
	var limiter *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Throttled{inner: inner, limiter: limiter}
}

// Translate waits for a rate token, then delegates
func (t *Throttled) Translate(ctx context.Context, req Request) (string, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", &Error{Message: "rate wait: " + err.Error(), Transient: true}
		}
	}
	return t.inner.Translate(ctx, req)
}
