package browser

import (
	"testing"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBlocked(t *testing.T) {
	Convey("Given an ad blocklist", t, func() {
		blocklist := []string{"doubleclick.net", ".histats.com"}

		Convey("Listed hosts and their subdomains should be blocked", func() {
			So(Blocked("https://doubleclick.net/pixel", blocklist), ShouldBeTrue)
			So(Blocked("https://stats.g.doubleclick.net/collect?v=1", blocklist), ShouldBeTrue)
			So(Blocked("https://s10.HISTATS.com/js15.js", blocklist), ShouldBeTrue)
		})

		Convey("Lookalike and unrelated hosts should pass", func() {
			So(Blocked("https://notdoubleclick.net/", blocklist), ShouldBeFalse)
			So(Blocked("https://cdn.example.com/master.m3u8?ref=doubleclick.net", blocklist), ShouldBeFalse)
			So(Blocked("::not a url", blocklist), ShouldBeFalse)
		})
	})
}

func TestStripResponseHeaders(t *testing.T) {
	Convey("StripResponseHeaders should drop security policy headers only", t, func() {
		headers := []*fetch.HeaderEntry{
			{Name: "content-security-policy", Value: "default-src 'self'"},
			{Name: "Content-Security-Policy-Report-Only", Value: "script-src 'none'"},
			{Name: "Referrer-Policy", Value: "no-referrer"},
			{Name: "Content-Type", Value: "text/html"},
			{Name: "Set-Cookie", Value: "cf_clearance=abc"},
		}

		names := lo.Map(StripResponseHeaders(headers), func(h *fetch.HeaderEntry, _ int) string { return h.Name })
		So(names, ShouldResemble, []string{"Content-Type", "Set-Cookie"})
	})
}

func TestWithReferer(t *testing.T) {
	Convey("Given request headers without a referer", t, func() {
		headers := network.Headers{"Accept": "*/*"}

		Convey("The player URL should be injected", func() {
			entries, ok := WithReferer(headers, "https://player.example.com/e/abc")
			So(ok, ShouldBeTrue)
			So(entries, ShouldHaveLength, 2)
			So(entries[1].Name, ShouldEqual, "Referer")
			So(entries[1].Value, ShouldEqual, "https://player.example.com/e/abc")
		})
	})

	Convey("Given request headers with a referer", t, func() {
		headers := network.Headers{"referer": "https://anitaku.to/"}

		Convey("They should be left alone", func() {
			_, ok := WithReferer(headers, "https://player.example.com/e/abc")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("An empty referer should never be injected", t, func() {
		_, ok := WithReferer(network.Headers{}, "")
		So(ok, ShouldBeFalse)
	})
}
