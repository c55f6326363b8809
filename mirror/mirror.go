// Package mirror resolves which of the provider's candidate domains is currently live.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AlexMakesC0de/anime-watch/constant"
	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// ErrUnavailable reports that no candidate passed the liveness probe.
var ErrUnavailable = errors.New("no provider mirror is reachable")

// DefaultProbeTimeout bounds a single candidate probe.
const DefaultProbeTimeout = 8 * time.Second

// maxProbeBody limits how much of a landing page is scanned for fingerprints.
const maxProbeBody = 1 << 20

// Resolver probes candidate mirrors and memoizes the live origin.
type Resolver struct {
	candidates   []string
	fingerprints []string
	client       *http.Client
	timeout      time.Duration

	mu     sync.Mutex
	active string
}

// New creates a resolver over candidates in priority order.
func New(candidates, fingerprints []string, client *http.Client, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Resolver{
		candidates:   lo.Map(candidates, func(c string, _ int) string { return strings.TrimRight(c, "/") }),
		fingerprints: fingerprints,
		client:       client,
		timeout:      timeout,
	}
}

// Resolve returns the live origin, probing candidates on the first call after a reset.
//
// When every candidate fails the first one is returned unvalidated, so callers still
// attempt a request instead of failing outright.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		return r.active, nil
	}

	if len(r.candidates) == 0 {
		return "", ErrUnavailable
	}

	for _, candidate := range r.candidates {
		origin, err := r.probe(ctx, candidate)
		if err != nil {
			log.Warnf("mirror %s rejected: %v", candidate, err)
			continue
		}

		log.Infof("mirror %s is live (origin %s)", candidate, origin)
		r.active = origin
		return origin, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	log.Warnf("%v, falling back to %s", ErrUnavailable, r.candidates[0])
	return r.candidates[0], nil
}

// Active returns the memoized origin, if any.
func (r *Resolver) Active() mo.Option[string] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == "" {
		return mo.None[string]()
	}
	return mo.Some(r.active)
}

// ResetDomain forgets the memoized origin so the next Resolve probes again.
func (r *Resolver) ResetDomain() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		log.Infof("forgetting mirror %s", r.active)
	}
	r.active = ""
}

// probe fetches candidate and returns the origin of the final, possibly redirected, URL.
func (r *Resolver) probe(ctx context.Context, candidate string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	page := string(body)
	if !lo.SomeBy(r.fingerprints, func(f string) bool { return strings.Contains(page, f) }) {
		return "", errors.New("no provider fingerprint in page")
	}

	final := resp.Request.URL
	return final.Scheme + "://" + final.Host, nil
}
