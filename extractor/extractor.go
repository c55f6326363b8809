// Package extractor turns a provider episode into playable sources by rendering
// each embed server in the browser and capturing the media requests it issues.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/AlexMakesC0de/anime-watch/source"
)

var (
	// ErrNoServersFound reports an episode page without embed servers.
	ErrNoServersFound = errors.New("no embed servers found on episode page")

	// ErrExtractionFailed reports that every embed server failed to yield a source.
	ErrExtractionFailed = errors.New("every embed server failed")
)

// Servers lists and resolves embed servers of an episode.
type Servers interface {
	EpisodeServers(ctx context.Context, slug string, episode int) ([]string, error)
	ResolvePlayer(ctx context.Context, embedURL string) (string, error)
}

// Extractor runs the multi-server capture loop.
type Extractor struct {
	servers Servers
	pages   Pages
	wrap    func(string) string
	timing  Timing
}

// New creates an extractor. wrap rewrites captured URLs, usually into proxy URLs.
func New(servers Servers, pages Pages, wrap func(string) string, timing Timing) *Extractor {
	if wrap == nil {
		wrap = func(s string) string { return s }
	}
	return &Extractor{servers: servers, pages: pages, wrap: wrap, timing: timing}
}

// GetEpisodeSources tries each embed server in page order and returns the first capture.
func (x *Extractor) GetEpisodeSources(ctx context.Context, slug string, episode int) (*source.StreamingInfo, error) {
	servers, err := x.servers.EpisodeServers(ctx, slug, episode)
	if err != nil {
		return nil, fmt.Errorf("episode %d of %s: %w", episode, slug, err)
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: %s episode %d", ErrNoServersFound, slug, episode)
	}

	var lastErr error
	for i, server := range servers {
		player, err := x.servers.ResolvePlayer(ctx, server)
		if err != nil {
			log.Warnf("resolving player of %s: %v, using it as is", server, err)
			player = server
		}

		log.Infof("trying server %d/%d: %s", i+1, len(servers), player)
		info, err := NewSession(player, x.pages, x.wrap, x.timing).Run(ctx)
		switch {
		case err != nil:
			log.Warnf("server %s failed: %v", player, err)
			lastErr = err
		case info.Empty():
			lastErr = fmt.Errorf("no sources captured from %s", player)
		default:
			return info, nil
		}

		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no sources captured")
	}
	return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, lastErr)
}
