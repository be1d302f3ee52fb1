package graphhopper

import (
	"time"

	"golang.org/x/time/rate"
)

// newRateLimiter at most perMinute requests per minute, the whole minute may be spent as one burst.
// perMinute <= 0 disables limiting.
func newRateLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}
