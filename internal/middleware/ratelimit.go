package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taskboard/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleClient is how long a client's limiter is kept without requests.
const idleClient = 10 * time.Minute

type clientInfo struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows each client IP rpm requests per minute with bursts of
// up to burst requests.
func RateLimit(rpm, burst int) func(http.Handler) http.Handler {
	clients := make(map[string]*clientInfo)
	var mtx sync.Mutex
	limit := rate.Limit(float64(rpm) / 60)
	if burst <= 0 {
		burst = 1
	}
	lastSweep := time.Now()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getIp(r)
			now := time.Now()

			mtx.Lock()
			info, exists := clients[ip]
			if !exists {
				info = &clientInfo{limiter: rate.NewLimiter(limit, burst)}
				clients[ip] = info
			}
			info.lastSeen = now

			if now.Sub(lastSweep) > idleClient {
				for key, c := range clients {
					if now.Sub(c.lastSeen) > idleClient {
						delete(clients, key)
					}
				}
				lastSweep = now
			}

			reservation := info.limiter.ReserveN(now, 1)
			delay := reservation.DelayFrom(now)
			if delay > 0 {
				reservation.CancelAt(now)
			}
			remaining := int(math.Max(0, math.Floor(info.limiter.TokensAt(now))))
			mtx.Unlock()

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if delay > 0 {
				retryAfter := int(math.Ceil(delay.Seconds()))
				logger.Warn("HTTP: Превышен лимит запросов",
					zap.String("client_ip", ip),
					zap.Int("retry_after", retryAfter))

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Слишком много запросов. Попробуйте позже.",
					"retry_after": retryAfter,
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
