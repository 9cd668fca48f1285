package audit

import (
	"context"

	"github.com/google/uuid"
)

type (
	requestIDKey struct{}
	clientIPKey  struct{}
)

// NewRequestID returns a fresh request id.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithClientIP returns a copy of ctx carrying the client address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the client address carried by ctx, or "".
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// Request carries the request-scoped fields shared by every event.
type Request struct {
	RequestID string
	ClientIP  string
	CallerID  string
}

// FromContext fills the request id and client address from ctx, keeping
// fields that are already set.
func (r Request) FromContext(ctx context.Context) Request {
	if r.RequestID == "" {
		r.RequestID = RequestID(ctx)
	}
	if r.ClientIP == "" {
		r.ClientIP = ClientIP(ctx)
	}
	return r
}

func (r Request) addTo(sd map[string]map[string]string) {
	client := map[string]string{}
	if r.ClientIP != "" {
		client["ip"] = r.ClientIP
	}
	if r.CallerID != "" {
		client["caller"] = r.CallerID
	}
	if len(client) > 0 {
		sd[SDIDClient] = client
	}
	if r.RequestID != "" {
		sd[SDIDRequest] = map[string]string{"id": r.RequestID}
	}
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func severity(success bool) Severity {
	if success {
		return SeverityInfo
	}
	return SeverityWarning
}
