package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/AlexMakesC0de/anime-watch/hls"
	"github.com/AlexMakesC0de/anime-watch/log"
)

// maxPlaylistBody bounds playlists read into memory for rewriting.
const maxPlaylistBody = 16 << 20

// passthroughHeaders are copied verbatim from upstream for non-playlist bodies.
var passthroughHeaders = []string{"Content-Type", "Content-Length", "Content-Range", "Accept-Ranges"}

func (s *Server) serveProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := r.URL.Query().Get("url")
	u, err := url.Parse(target)
	if target == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		http.Error(w, "missing or invalid url parameter", http.StatusBadRequest)
		return
	}

	reg := s.Registration()
	if reg == nil || reg.Session == nil {
		http.Error(w, ErrUnavailable.Error(), http.StatusServiceUnavailable)
		return
	}

	resp, err := s.replay(r.Context(), reg, target, r.Header.Get("Range"))
	if err != nil {
		log.Warnf("proxy %s: %v", target, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	// playlist-typed error bodies go through the marker check too
	if isPlaylistResponse(resp, u) {
		s.servePlaylist(w, r, resp, servedFrom(resp, target))
		return
	}

	for _, h := range passthroughHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Debugf("proxy %s: copy interrupted: %v", target, err)
	}
}

// servedFrom returns the URL a response was actually served from, after redirects.
func servedFrom(resp *http.Response, target string) string {
	if resp.Request != nil && resp.Request.URL != nil && resp.Request.URL.Host != "" {
		return resp.Request.URL.String()
	}
	return target
}

func (s *Server) servePlaylist(w http.ResponseWriter, r *http.Request, resp *http.Response, target string) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistBody))
	if err != nil {
		http.Error(w, fmt.Sprintf("read playlist: %v", err), http.StatusBadGateway)
		return
	}

	if !hls.IsPlaylist(body) {
		log.Warnf("proxy %s: %v", target, ErrPlaylistCorrupt)
		http.Error(w, ErrPlaylistCorrupt.Error(), http.StatusBadGateway)
		return
	}

	base := s.baseURL
	if base == "" {
		base = "http://" + r.Host
	}

	rewritten := hls.Rewrite(body, target, func(real string) string {
		return ToProxyURL(base, real)
	})

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Content-Length", fmt.Sprint(len(rewritten)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(rewritten)
	}
}

// replay issues the upstream request, retrying 403s and transport errors with linear backoff.
// A final 403 is returned as a response, a final transport error as an error.
func (s *Server) replay(ctx context.Context, reg *Registration, target, rangeHeader string) (*http.Response, error) {
	header := http.Header{}
	if reg.Referer != "" {
		header.Set("Referer", reg.Referer)
		if ref, err := url.Parse(reg.Referer); err == nil && ref.Host != "" {
			header.Set("Origin", ref.Scheme+"://"+ref.Host)
		}
	}
	if rangeHeader != "" {
		header.Set("Range", rangeHeader)
	}

	var (
		resp *http.Response
		err  error
	)

	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.opts.Backoff * time.Duration(attempt)):
			}
		}

		resp, err = reg.Session.Fetch(ctx, target, header.Clone())
		switch {
		case err != nil:
			log.Debugf("proxy %s attempt %d: %v", target, attempt+1, err)
			continue
		case resp.StatusCode == http.StatusForbidden && attempt < s.opts.Retries:
			log.Debugf("proxy %s attempt %d: forbidden", target, attempt+1)
			resp.Body.Close()
			continue
		}
		return resp, nil
	}

	if err != nil {
		return nil, fmt.Errorf("upstream unreachable after %d attempts: %w", s.opts.Retries+1, err)
	}
	return resp, nil
}

func isPlaylistResponse(resp *http.Response, target *url.URL) bool {
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "mpegurl") {
		return true
	}
	return strings.EqualFold(path.Ext(target.Path), ".m3u8")
}
