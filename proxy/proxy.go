// Package proxy serves captured media through the browser session that captured it.
//
// The server binds an ephemeral loopback port once per process. Each request on
// GET /proxy?url=<target> is replayed through the registered session, and HLS
// playlists are rewritten so nested URIs come back through the same route.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/AlexMakesC0de/anime-watch/key"
	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/spf13/viper"
)

var (
	// ErrUnavailable reports that no extraction session is registered.
	ErrUnavailable = errors.New("no streaming session registered")

	// ErrPlaylistCorrupt reports a playlist-typed response without the playlist marker.
	ErrPlaylistCorrupt = errors.New("upstream playlist is corrupt or blocked")
)

// Fetcher replays GET requests through a browser session identity.
type Fetcher interface {
	Fetch(ctx context.Context, target string, header http.Header) (*http.Response, error)
}

// Registration binds the proxy to the session of the latest successful extraction.
type Registration struct {
	Session Fetcher
	Referer string
}

// Options configures the proxy server.
type Options struct {
	// Addr defaults to an ephemeral loopback port.
	Addr    string
	Retries int
	Backoff time.Duration
}

// DefaultOptions are used for zero fields of Options.
var DefaultOptions = Options{
	Addr:    "127.0.0.1:0",
	Retries: 3,
	Backoff: 300 * time.Millisecond,
}

// OptionsFromConfig reads retry settings from viper.
func OptionsFromConfig() Options {
	return Options{
		Retries: viper.GetInt(key.ProxyRetries),
		Backoff: viper.GetDuration(key.ProxyBackoff),
	}
}

// Server is the local streaming proxy.
type Server struct {
	opts Options

	startOnce sync.Once
	startErr  error
	http      *http.Server
	baseURL   string

	mu           sync.RWMutex
	registration *Registration
}

// New creates a proxy server. It does not listen until Start.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultOptions.Addr
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultOptions.Backoff
	}
	return &Server{opts: opts}
}

// Handler returns the proxy's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Route, s.serveProxy)
	return chain(mux, recovery, logging, cors)
}

// Start binds the listener and serves in the background. Later calls are no-ops.
func (s *Server) Start() error {
	s.startOnce.Do(func() {
		listener, err := net.Listen("tcp", s.opts.Addr)
		if err != nil {
			s.startErr = fmt.Errorf("proxy listen: %w", err)
			return
		}

		s.http = &http.Server{
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Minute,
		}
		s.baseURL = "http://" + listener.Addr().String()

		go func() {
			if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("proxy stopped: %v", err)
			}
		}()

		log.Infof("streaming proxy listening on %s", s.baseURL)
	})
	return s.startErr
}

// BaseURL returns the proxy origin, empty before Start.
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Wrap returns the proxy URL for real.
func (s *Server) Wrap(real string) string {
	return ToProxyURL(s.baseURL, real)
}

// Register replaces the active registration.
func (s *Server) Register(r Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registration = &r
	log.Infof("proxy session registered (referer %s)", r.Referer)
}

// Unregister drops the active registration.
func (s *Server) Unregister() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registration = nil
}

// Registration returns the active registration or nil.
func (s *Server) Registration() *Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.registration
}

// Close shuts the server down.
func (s *Server) Close(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
