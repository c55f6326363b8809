// Package provider speaks the provider's server-rendered HTML dialect: search pages,
// episode pages carrying data-video embed servers, and embed pages wrapping an iframe.
//
// The dialect is a fragile third-party contract; parsers live in parse.go behind
// io.Reader functions and are pinned by fixture tests.
package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/AlexMakesC0de/anime-watch/constant"
	"github.com/AlexMakesC0de/anime-watch/internal/cache"
	"github.com/AlexMakesC0de/anime-watch/log"
)

// ErrPageStatus reports a non-2xx provider page.
var ErrPageStatus = errors.New("unexpected provider page status")

// maxPageBody bounds every fetched provider page.
const maxPageBody = 8 << 20

// Origin resolves the live provider origin.
type Origin interface {
	Resolve(ctx context.Context) (string, error)
}

// Client fetches and parses provider pages.
type Client struct {
	origin Origin
	client *http.Client
	cache  *cache.Cache
}

// New creates a provider client using origin for the base URL and client for transport.
func New(origin Origin, client *http.Client) *Client {
	return &Client{origin: origin, client: client}
}

// WithCache makes Search reuse fresh snapshots of earlier result pages.
func (c *Client) WithCache(snapshots *cache.Cache) *Client {
	c.cache = snapshots
	return c
}

// Search queries the provider search page.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	base, err := c.origin.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	snapshotKey := cache.Key(query, base)
	if c.cache != nil {
		var cached []SearchResult
		if c.cache.Read(snapshotKey, &cached) {
			log.Debugf("provider search %q served from cache", query)
			return cached, nil
		}
	}

	target := fmt.Sprintf("%s/search.html?keyword=%s", base, url.QueryEscape(query))
	log.Infof("searching provider for %q", query)

	body, err := c.get(ctx, target, base)
	if err != nil {
		return nil, err
	}

	results, err := ParseSearchResults(bytes.NewReader(body), base)
	if err != nil {
		return nil, err
	}

	log.Infof("provider search %q returned %d results", query, len(results))
	if c.cache != nil && len(results) > 0 {
		if err := c.cache.Write(snapshotKey, results); err != nil {
			log.Warnf("caching search %q: %v", query, err)
		}
	}
	return results, nil
}

// EpisodeServers returns the embed-server URLs listed on the episode page of slug.
func (c *Client) EpisodeServers(ctx context.Context, slug string, episode int) ([]string, error) {
	base, err := c.origin.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	target := fmt.Sprintf("%s/%s-episode-%d", base, slug, episode)
	body, err := c.get(ctx, target, base)
	if err != nil {
		return nil, err
	}

	servers, err := ParseEmbedServers(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	log.Infof("episode page %s lists %d embed servers", target, len(servers))
	return servers, nil
}

// ResolvePlayer follows one level of iframe indirection on an embed page.
// On a fetch failure it returns embedURL together with the error, so callers may fall back.
func (c *Client) ResolvePlayer(ctx context.Context, embedURL string) (string, error) {
	body, err := c.get(ctx, embedURL, "")
	if err != nil {
		return embedURL, err
	}

	src, ok, err := ParseIframeSrc(bytes.NewReader(body), embedURL)
	if err != nil {
		return embedURL, err
	}
	if !ok {
		return embedURL, nil
	}

	log.Debugf("embed %s wraps player %s", embedURL, src)
	return src, nil
}

func (c *Client) get(ctx context.Context, target, referer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if referer != "" {
		req.Header.Set("Referer", referer+"/")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrPageStatus, target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	return body, nil
}
