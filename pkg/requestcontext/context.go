// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets the values; services read them without importing net/http.
//
// Usage in services (read values):
//
//	actorID := requestcontext.UserID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//	requestcontext.AddWarning(ctx, "notification not sent")
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, id.UserID(7), "ADMINISTRADOR")
package requestcontext

import (
	"context"
	"sync"
	"time"

	id "oncofeliz/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey          struct{}
	roleKey            struct{}
	beneficiaryCodeKey struct{}
	clientIPKey        struct{}
	userAgentKey       struct{}
	channelKey         struct{}
	requestIDKey       struct{}
	requestTimeKey     struct{}
	warningsKey        struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyUserID          = userIDKey{}
	ContextKeyRole            = roleKey{}
	ContextKeyBeneficiaryCode = beneficiaryCodeKey{}
	ContextKeyClientIP        = clientIPKey{}
	ContextKeyUserAgent       = userAgentKey{}
	ContextKeyChannel         = channelKey{}
	ContextKeyRequestID       = requestIDKey{}
	ContextKeyRequestTime     = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Actor (authenticated staff member or beneficiary)
// -----------------------------------------------------------------------------

// UserID retrieves the authenticated user ID from the context.
// Returns zero if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return 0
}

// Role retrieves the raw role claim of the authenticated user.
func Role(ctx context.Context) string {
	if role, ok := ctx.Value(ContextKeyRole).(string); ok {
		return role
	}
	return ""
}

// WithActor injects the authenticated user ID and role into the context.
func WithActor(ctx context.Context, userID id.UserID, role string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	return context.WithValue(ctx, ContextKeyRole, role)
}

// BeneficiaryCode is the beneficiary code bound to a BENEFICIARIO token.
func BeneficiaryCode(ctx context.Context) string {
	if code, ok := ctx.Value(ContextKeyBeneficiaryCode).(string); ok {
		return code
	}
	return ""
}

// WithBeneficiaryCode injects the beneficiary code claim into the context.
func WithBeneficiaryCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, ContextKeyBeneficiaryCode, code)
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent, channel)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// Channel is "mobile", "web" or "api", derived from the User-Agent.
func Channel(ctx context.Context) string {
	if ch, ok := ctx.Value(ContextKeyChannel).(string); ok {
		return ch
	}
	return ""
}

// WithClientMetadata injects client IP, User-Agent and channel into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent, channel string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return context.WithValue(ctx, ContextKeyChannel, channel)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// -----------------------------------------------------------------------------
// Warnings
// -----------------------------------------------------------------------------

type warnings struct {
	mu    sync.Mutex
	items []string
}

// WithWarnings attaches an empty warning collector. The HTTP layer installs
// one per request and renders its contents next to a successful result.
func WithWarnings(ctx context.Context) context.Context {
	return context.WithValue(ctx, warningsKey{}, &warnings{})
}

// AddWarning records a non-fatal side-effect failure. It is a no-op when no
// collector is installed.
func AddWarning(ctx context.Context, msg string) {
	w, ok := ctx.Value(warningsKey{}).(*warnings)
	if !ok {
		return
	}
	w.mu.Lock()
	w.items = append(w.items, msg)
	w.mu.Unlock()
}

// Warnings returns a copy of the collected warnings.
func Warnings(ctx context.Context) []string {
	w, ok := ctx.Value(warningsKey{}).(*warnings)
	if !ok {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.items) == 0 {
		return nil
	}
	out := make([]string, len(w.items))
	copy(out, w.items)
	return out
}
