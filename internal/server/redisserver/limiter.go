package redisserver

import (
	"golang.org/x/time/rate"

	"github.com/784356225/redistrap/pkg/cmap"
)

// limiterRegistry keeps one token-bucket limiter per client IP. Sessions
// from the same address share a bucket, so a scanner opening many parallel
// connections cannot multiply its command budget.
type limiterRegistry struct {
	limiters *cmap.Map[*rate.Limiter]
	perSec   int
}

func newLimiterRegistry(commandsPerSecond int) *limiterRegistry {
	return &limiterRegistry{
		limiters: cmap.New[*rate.Limiter](),
		perSec:   commandsPerSecond,
	}
}

// allow reports whether another command from ip fits the budget.
// A zero or negative rate disables limiting.
func (r *limiterRegistry) allow(ip string) bool {
	if r == nil || r.perSec <= 0 {
		return true
	}

	l := r.limiters.GetOrCompute(ip, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(r.perSec), r.perSec)
	})
	return l.Allow()
}

// tracked returns how many client IPs currently hold a limiter.
func (r *limiterRegistry) tracked() int {
	if r == nil || r.perSec <= 0 {
		return 0
	}
	return r.limiters.Count()
}
