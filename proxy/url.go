package proxy

import (
	"net/url"
	"strings"
)

// Route is the only path served by the proxy.
const Route = "/proxy"

// ToProxyURL wraps real inside the proxy route served at base.
func ToProxyURL(base, real string) string {
	return strings.TrimRight(base, "/") + Route + "?url=" + url.QueryEscape(real)
}

// FromProxyURL extracts the real URL from a proxy URL.
func FromProxyURL(proxyURL string) (string, bool) {
	u, err := url.Parse(proxyURL)
	if err != nil || u.Path != Route {
		return "", false
	}

	real := u.Query().Get("url")
	if real == "" {
		return "", false
	}
	return real, true
}
