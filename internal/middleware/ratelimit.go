package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sydneysamil/samil-web/internal/requestinfo"
	"github.com/sydneysamil/samil-web/internal/respond"
)

// idleTTL is how long a client's bucket survives without traffic.
const idleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a per-client-IP token bucket.  Idle buckets are swept on
// access, so no background goroutine is needed.
type Limiter struct {
	every rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*bucket
	lastSweep time.Time
}

// NewLimiter allows burst requests at once and one more every interval.
func NewLimiter(interval time.Duration, burst int) *Limiter {
	return &Limiter{
		every:   rate.Every(interval),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*bucket),
	}
}

// Allow reports whether key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleTTL {
		for k, b := range l.clients {
			if now.Sub(b.lastSeen) > idleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.clients[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Check reports whether the caller of r may proceed.  When it may not, the
// 429 with a Retry-After hint has already been written.
func (l *Limiter) Check(w http.ResponseWriter, r *http.Request) bool {
	key := "unknown"
	if ip := requestinfo.ClientIP(r); ip != nil {
		key = ip.String()
	}
	if l.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(time.Duration(float64(time.Second)/float64(l.every)).Seconds())))
	respond.JSON(w, http.StatusTooManyRequests, respond.ErrorEnvelope{Error: "Too many requests."})
	return false
}
