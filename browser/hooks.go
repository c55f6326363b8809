package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/samber/lo"
)

// strippedResponseHeaders are removed from every response inside a session so
// player scripts can fetch cross-origin and replays can pick their Referer.
var strippedResponseHeaders = []string{
	"Content-Security-Policy",
	"Content-Security-Policy-Report-Only",
	"Referrer-Policy",
}

// Blocked reports whether rawURL's host is, or is a subdomain of, a blocklisted host.
func Blocked(rawURL string, blocklist []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	return lo.SomeBy(blocklist, func(b string) bool {
		b = strings.ToLower(strings.TrimPrefix(b, "."))
		return host == b || strings.HasSuffix(host, "."+b)
	})
}

// StripResponseHeaders drops security headers that would constrain the session.
func StripResponseHeaders(headers []*fetch.HeaderEntry) []*fetch.HeaderEntry {
	return lo.Reject(headers, func(h *fetch.HeaderEntry, _ int) bool {
		return lo.ContainsBy(strippedResponseHeaders, func(s string) bool {
			return strings.EqualFold(h.Name, s)
		})
	})
}

// WithReferer returns the request headers with referer added, or false if a Referer is already present.
func WithReferer(headers network.Headers, referer string) ([]*fetch.HeaderEntry, bool) {
	if referer == "" {
		return nil, false
	}

	entries := make([]*fetch.HeaderEntry, 0, len(headers)+1)
	for name, value := range headers {
		if strings.EqualFold(name, "Referer") {
			return nil, false
		}
		entries = append(entries, &fetch.HeaderEntry{Name: name, Value: fmt.Sprint(value)})
	}

	return append(entries, &fetch.HeaderEntry{Name: "Referer", Value: referer}), true
}
