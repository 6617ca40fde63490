package testutil

import (
	"context"
	"net/http"
	"time"

	"orgtrakker/pkg/platform/middleware/actor"
	"orgtrakker/pkg/requestcontext"
)

// ActorContext returns a context as the request middleware would leave it
// for username acting in companyID at now.
func ActorContext(username, companyID string, now time.Time) context.Context {
	ctx := requestcontext.WithTime(context.Background(), now)
	return requestcontext.WithActor(ctx, requestcontext.Actor{Username: username, CompanyID: companyID})
}

// WithActorHeaders sets the gateway headers that identify the actor.
func WithActorHeaders(req *http.Request, username, companyID string) *http.Request {
	req.Header.Set(actor.HeaderUsername, username)
	if companyID != "" {
		req.Header.Set(actor.HeaderCompanyID, companyID)
	}
	return req
}
