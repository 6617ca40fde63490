// Package actor lifts the authenticated actor from trusted upstream headers
// into the request context. Token validation happens before this service.
package actor

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"orgtrakker/pkg/requestcontext"
)

// Headers set by the authenticating gateway.
const (
	HeaderUsername  = "X-Actor-Username"
	HeaderUserID    = "X-Actor-Id"
	HeaderCompanyID = "X-Actor-Company"
)

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// Require rejects requests that arrive without an actor username.
func Require(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := requestcontext.Actor{
				Username:  strings.TrimSpace(r.Header.Get(HeaderUsername)),
				UserID:    strings.TrimSpace(r.Header.Get(HeaderUserID)),
				CompanyID: strings.TrimSpace(r.Header.Get(HeaderCompanyID)),
			}
			if a.Username == "" {
				logger.WarnContext(r.Context(), "request without actor",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(r.Context(), a)))
		})
	}
}
