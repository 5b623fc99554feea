package rhfolio

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Pacer spaces out calls to one external service, and retries the rate
// limited ones with exponential backoff. Both brokerage and spreadsheet
// traffic go through one, the services throttle aggressively.
type Pacer struct {
	BaseDelay  time.Duration // first backoff step
	MaxDelay   time.Duration // backoff cap
	MaxRetries int

	sleep  func(time.Duration)
	random func() float64
}

// NewPacer returns a Pacer with the default backoff schedule.
func NewPacer() *Pacer {
	return &Pacer{
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   15 * time.Second,
		MaxRetries: 3,
		sleep:      time.Sleep,
		random:     rand.Float64,
	}
}

// Pause sleeps between 70% and 100% of base, but never less than 100ms. Call
// it between consecutive requests to the same service.
func (p *Pacer) Pause(base time.Duration) {
	if base <= 0 {
		return
	}
	jitter := time.Duration(float64(base) * 0.3 * p.random())
	d := time.Duration(float64(base)*0.7) + jitter
	if d < 100*time.Millisecond {
		d = 100 * time.Millisecond
	}
	p.sleep(d)
}

// Do runs fn, retrying rate limited failures with jittered exponential
// backoff. Other failures return immediately. The last error is returned
// once the retries are exhausted.
func (p *Pacer) Do(fn func() error) error {
	delay := p.BaseDelay
	for retries := 0; ; retries++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRateLimited(err) || retries >= p.MaxRetries {
			return err
		}
		p.sleep(time.Duration(float64(delay) * (0.8 + 0.4*p.random())))
		delay = time.Duration(float64(delay) * 1.8)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}

// ErrRateLimited marks an error as a rate limit rejection regardless of its
// text.
var ErrRateLimited = errors.New("rate limited")

// rateLimitHints are the fragments the external services put in their
// throttling errors.
var rateLimitHints = []string{"quota", "rate limit", "429", "too many requests", "exceeded"}

// IsRateLimited reports whether the error looks like a throttling rejection.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range rateLimitHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// RateLimited wraps err so that IsRateLimited recognizes it.
func RateLimited(err error) error {
	return fmt.Errorf("%w: %w", ErrRateLimited, err)
}
