package ratelimit

import (
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
)

// Limiter is an in-memory anti-flood limiter: at most maxHits hits per
// (actor, action) key inside a sliding window. Entries older than the
// window are evicted on every hit, and the key space itself is bounded by
// an LRU so the registry cannot grow without limit.
type Limiter struct {
	window  time.Duration
	maxHits int

	mu   sync.Mutex
	hits *lru.Cache[key, []time.Time]
}

type key struct {
	Actor  string
	Action string
}

// New creates a limiter. maxKeys bounds the number of tracked
// (actor, action) pairs.
func New(window time.Duration, maxHits, maxKeys int) (*Limiter, error) {
	hits, err := lru.New[key, []time.Time](maxKeys)
	if err != nil {
		return nil, err
	}
	return &Limiter{
		window:  window,
		maxHits: maxHits,
		hits:    hits,
	}, nil
}

// Hit registers one hit and reports whether the actor is still within the
// allowance for this action.
func (l *Limiter) Hit(actor, action string) bool {
	now := time.Now()
	k := key{Actor: actor, Action: action}

	l.mu.Lock()
	defer l.mu.Unlock()

	prev, _ := l.hits.Get(k)
	recent := prev[:0]
	for _, t := range prev {
		if now.Sub(t) <= l.window {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	l.hits.Add(k, recent)

	return len(recent) <= l.maxHits
}

// Middleware rejects requests beyond the allowance with 429, keyed by
// client IP and the given action name.
func (l *Limiter) Middleware(action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Hit(c.RealIP(), action) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
			}
			return next(c)
		}
	}
}
