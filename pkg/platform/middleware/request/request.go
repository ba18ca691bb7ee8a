// Package request provides middleware for request identity: the request id
// header and the per-request warning collector.
package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"oncofeliz/pkg/requestcontext"
)

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLength = 64

// RequestID reuses a well-formed incoming X-Request-ID or generates a UUID,
// and installs the warning collector for the request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if reqID == "" || len(reqID) > maxRequestIDLength || strings.ContainsAny(reqID, "\r\n\"") {
			reqID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		ctx = requestcontext.WithWarnings(ctx)
		w.Header().Set(HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
