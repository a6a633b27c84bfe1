package testutil

import (
	"net/http"
	"time"

	id "knowledgehub/pkg/domain"
	"knowledgehub/pkg/requestcontext"
)

// WithActor injects an authenticated actor into the request context, the way
// the auth middleware would after validating a token.
func WithActor(req *http.Request, userID id.UserID, role id.Role) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithRole(ctx, role)
	ctx = requestcontext.WithTime(ctx, time.Now())
	return req.WithContext(ctx)
}

// WithRequestID injects a request ID into the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
