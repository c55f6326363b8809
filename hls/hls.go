// Package hls rewrites HLS playlists so every referenced URI routes through a local proxy.
package hls

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
)

// Marker is the mandatory first tag of an HLS playlist.
const Marker = "#EXTM3U"

var (
	bom      = []byte{0xEF, 0xBB, 0xBF}
	uriRegex = regexp.MustCompile(`URI="([^"]*)"`)
)

// IsPlaylist reports whether body starts with the playlist marker,
// ignoring an optional UTF-8 BOM and leading whitespace.
func IsPlaylist(body []byte) bool {
	body = bytes.TrimPrefix(body, bom)
	body = bytes.TrimLeft(body, " \t\r\n")
	return bytes.HasPrefix(body, []byte(Marker))
}

// BaseDir returns rawURL up to and including its last slash, without the query string.
func BaseDir(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	if i := strings.LastIndex(rawURL, "/"); i >= 0 {
		return rawURL[:i+1]
	}
	return rawURL
}

// Resolve returns ref as an absolute URL relative to the playlist at base.
func Resolve(ref, base string) string {
	ref = strings.TrimSpace(ref)

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" {
		return BaseDir(base) + ref
	}

	if strings.HasPrefix(ref, "//") {
		return b.Scheme + ":" + ref
	}

	r, err := url.Parse(ref)
	if err != nil {
		return BaseDir(base) + ref
	}

	return b.ResolveReference(r).String()
}

// Rewrite resolves every URI in playlist against playlistURL and passes it through wrap.
//
// Blank lines and tags without a URI attribute are kept as is. Line endings are preserved.
func Rewrite(playlist []byte, playlistURL string, wrap func(string) string) []byte {
	var out bytes.Buffer
	out.Grow(len(playlist) + len(playlist)/2)

	for len(playlist) > 0 {
		var line, eol []byte
		if i := bytes.IndexByte(playlist, '\n'); i >= 0 {
			line, eol, playlist = playlist[:i], playlist[i:i+1], playlist[i+1:]
		} else {
			line, playlist = playlist, nil
		}
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line, eol = line[:n-1], append([]byte{'\r'}, eol...)
		}

		out.Write(rewriteLine(line, playlistURL, wrap))
		out.Write(eol)
	}

	return out.Bytes()
}

func rewriteLine(line []byte, playlistURL string, wrap func(string) string) []byte {
	trimmed := bytes.TrimSpace(line)

	switch {
	case len(trimmed) == 0:
		return line
	case trimmed[0] == '#':
		if !uriRegex.Match(line) {
			return line
		}
		return uriRegex.ReplaceAllFunc(line, func(m []byte) []byte {
			uri := uriRegex.FindSubmatch(m)[1]
			return []byte(`URI="` + wrap(Resolve(string(uri), playlistURL)) + `"`)
		})
	default:
		return []byte(wrap(Resolve(string(trimmed), playlistURL)))
	}
}
