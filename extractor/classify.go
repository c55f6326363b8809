package extractor

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// Kind is the media type of a captured URL.
type Kind int

const (
	KindHLS Kind = iota + 1
	KindDirect
)

func (k Kind) String() string {
	switch k {
	case KindHLS:
		return "hls"
	case KindDirect:
		return "direct"
	default:
		return "unknown"
	}
}

var (
	beaconMarkers = []string{"/analytics", "/beacon", "/collect", "/ping", "/track", "/stats", "/pixel", "/log/"}
	adMarkers     = []string{"/ads/", "/ad/", "/adv/", "preroll", "vast", "advert", "/promo", "banner"}

	directRegex  = regexp.MustCompile(`\.(mp4|webm)$`)
	qualityRegex = regexp.MustCompile(`(?i)(?:^|[^0-9a-z])(\d{3,4})p(?:[^0-9a-z]|$)`)
)

// pathOf returns the lowercased URL without query and fragment.
func pathOf(rawURL string) string {
	p, _, _ := strings.Cut(rawURL, "?")
	p, _, _ = strings.Cut(p, "#")
	return strings.ToLower(p)
}

func containsAny(s string, markers []string) bool {
	return lo.SomeBy(markers, func(m string) bool { return strings.Contains(s, m) })
}

// Classify reports whether rawURL is an HLS manifest or direct media file.
func Classify(rawURL string) (Kind, bool) {
	p := pathOf(rawURL)

	hls := strings.HasSuffix(p, ".m3u8") ||
		strings.Contains(p, "/master.m3u8") ||
		(strings.Contains(p, "/index") && strings.Contains(p, ".m3u8"))

	if hls && !strings.HasSuffix(p, ".ts") && !containsAny(p, beaconMarkers) {
		return KindHLS, true
	}

	if directRegex.MatchString(p) && !containsAny(p, adMarkers) {
		return KindDirect, true
	}

	return 0, false
}

// QualityOf returns the NNNp token of rawURL, or a default for kind.
func QualityOf(rawURL string, kind Kind) string {
	if m := qualityRegex.FindStringSubmatch(rawURL); m != nil {
		return m[1] + "p"
	}
	if kind == KindHLS {
		return "auto"
	}
	return "default"
}
