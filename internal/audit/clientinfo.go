package audit

import (
	"context"

	"github.com/mssola/useragent"

	"orgtrakker/pkg/requestcontext"
)

// ActorFromContext builds the audit actor from request-scoped values,
// parsing the User-Agent into browser and OS names.
func ActorFromContext(ctx context.Context) Actor {
	a := requestcontext.ActorFrom(ctx)
	actor := Actor{
		Username:  a.Username,
		UserID:    a.UserID,
		CompanyID: a.CompanyID,
		IP:        requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}
	if actor.UserAgent != "" {
		ua := useragent.New(actor.UserAgent)
		name, version := ua.Browser()
		if name != "" {
			actor.Browser = name
			if version != "" {
				actor.Browser += " " + version
			}
		}
		actor.OS = ua.OS()
	}
	return actor
}
