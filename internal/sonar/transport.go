package sonar

import (
	"fmt"
	"net/http"
	"strings"
)

// Transport decorates every outgoing request with the SonarQube credential.
// SonarQube user tokens are sent as the basic-auth username with an empty
// password.
type Transport struct {
	base      http.RoundTripper
	token     string
	userAgent string
}

func NewTransport(base http.RoundTripper, token string, userAgent string) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, token: token, userAgent: strings.TrimSpace(userAgent)}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("sonar: nil request")
	}

	// RoundTrippers must not modify the caller's request.
	req2 := req.Clone(req.Context())
	req2.SetBasicAuth(t.token, "")
	if req2.Header.Get("Accept") == "" {
		req2.Header.Set("Accept", "application/json")
	}
	if t.userAgent != "" {
		req2.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req2)
}
