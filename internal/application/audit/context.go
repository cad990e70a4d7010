package audit

import "context"

type requestInfoKey struct{}

// RequestInfo is the client information stamped on audit records
type RequestInfo struct {
	IP        string
	UserAgent string
}

// WithRequestInfo attaches the client address and user agent to ctx.
// The HTTP layer calls it once per request.
func WithRequestInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, RequestInfo{IP: ip, UserAgent: userAgent})
}

// RequestInfoFrom returns the request info stored in ctx, if any
func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}
