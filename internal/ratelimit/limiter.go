// SPDX-License-Identifier: MIT

// Package ratelimit throttles per-shot submissions per capability profile.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/shotplan/internal/payload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	rateLimitWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shotplan",
			Name:      "ratelimit_wait_seconds",
			Help:      "Time spent waiting for a submission slot",
			Buckets:   []float64{0, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"profile"},
	)
)

// Limiter holds one token bucket per profile that declares a rate.
type Limiter struct {
	mu         sync.RWMutex
	perProfile map[string]*rate.Limiter
}

// New builds limiters for every profile with rate_per_second > 0.
// Profiles without a rate are not throttled.
func New(profiles []payload.Profile) *Limiter {
	l := &Limiter{perProfile: make(map[string]*rate.Limiter)}
	for _, p := range profiles {
		l.Set(p)
	}
	return l
}

// Set installs or replaces the limiter for p.
func (l *Limiter) Set(p payload.Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p.RatePerSecond <= 0 {
		delete(l.perProfile, p.Name)
		return
	}
	burst := p.Burst
	if burst <= 0 {
		burst = 1
	}
	l.perProfile[p.Name] = rate.NewLimiter(rate.Limit(p.RatePerSecond), burst)
}

// Wait blocks until profile may submit or ctx is done.
func (l *Limiter) Wait(ctx context.Context, profile string) error {
	l.mu.RLock()
	limiter, ok := l.perProfile[profile]
	l.mu.RUnlock()
	if !ok {
		return nil
	}
	start := time.Now()
	err := limiter.Wait(ctx)
	rateLimitWait.WithLabelValues(profile).Observe(time.Since(start).Seconds())
	return err
}
