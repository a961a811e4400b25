package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/solecart-backend/api/responses"
	"github.com/angelmondragon/solecart-backend/api/validators"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles one auth surface (login, register, reset)
// per client IP and per account email over a fixed window.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// rateCheck is one counter a request must stay under.
type rateCheck struct {
	kind  string
	key   string
	limit int
	// logged in place of the key, which may be a hash
	label string
}

func (p AuthRateLimitPolicy) scope(kind, key string) string {
	return kind + ":" + p.name + ":" + key
}

// checks builds the counters for r. The body is only read when an email
// limit is configured, and it is rewound for the handler.
func (p AuthRateLimitPolicy) checks(r *http.Request) ([]rateCheck, error) {
	var out []rateCheck
	if p.ipLimit > 0 {
		if ip := ClientIP(r); ip != "" {
			out = append(out, rateCheck{kind: "ip", key: ip, limit: p.ipLimit, label: ip})
		}
	}
	if p.emailLimit > 0 {
		email, err := validators.PeekEmail(r)
		if err != nil {
			return nil, err
		}
		if email != "" {
			out = append(out, rateCheck{kind: "email", key: hashEmail(email), limit: p.emailLimit, label: logger.MaskEmail(email)})
		}
	}
	return out, nil
}

// AuthRateLimit rejects requests over any of the policy's counters with 429
// and a Retry-After of one window.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			checks, err := policy.checks(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			for _, check := range checks {
				allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(check.kind, check.key), int64(check.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					rejectRateLimited(ctx, logg, w, policy, check, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, check rateCheck, count int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":         policy.name,
			"scope":          check.kind,
			"subject":        check.label,
			"attempts":       count,
			"limit":          check.limit,
			"window_seconds": int(policy.window.Seconds()),
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Round(time.Second).Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

// ClientIP returns the first parseable address from X-Forwarded-For, then
// X-Real-IP, then the socket peer.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
