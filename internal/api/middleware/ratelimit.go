package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit returns middleware that limits requests per client IP. It guards
// the public registration and token endpoints against credential stuffing;
// authenticated routes are not limited.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiters := &ipLimiters{
		byIP:  make(map[string]*client),
		rps:   rate.Limit(rps),
		burst: burst,
	}
	go limiters.evictStale()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiters.get(ip).Allow() {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiters struct {
	mu    sync.Mutex
	byIP  map[string]*client
	rps   rate.Limit
	burst int
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.byIP[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.byIP[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

func (l *ipLimiters) evictStale() {
	for {
		time.Sleep(10 * time.Minute)
		l.mu.Lock()
		for ip, c := range l.byIP {
			if time.Since(c.lastSeen) > 10*time.Minute {
				delete(l.byIP, ip)
			}
		}
		l.mu.Unlock()
	}
}
