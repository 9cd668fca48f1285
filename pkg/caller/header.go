package caller

import (
	"fmt"
	"net/http"
)

// DefaultHeader carries the caller id set by the fronting proxy.
const DefaultHeader = "X-Caller-Id"

// HeaderProvider reads the caller id from a header, but only on requests
// whose remote address is a trusted proxy.
type HeaderProvider struct {
	Header       string
	TrustedProxy func(ip string) bool
}

// NewHeaderProvider returns a HeaderProvider. An empty header selects
// DefaultHeader.
func NewHeaderProvider(header string, trustedProxy func(ip string) bool) *HeaderProvider {
	if header == "" {
		header = DefaultHeader
	}
	return &HeaderProvider{Header: header, TrustedProxy: trustedProxy}
}

func (p *HeaderProvider) CallerID(r *http.Request) (string, error) {
	ip := remoteIP(r)
	if p.TrustedProxy == nil || !p.TrustedProxy(ip) {
		return "", fmt.Errorf("%w: %s is not a trusted proxy", ErrAnonymous, ip)
	}
	return checkID(r.Header.Get(p.Header))
}
