// Package stream coordinates mirror resolution, title matching, the mapping cache,
// extraction and the streaming proxy behind the two inbound operations.
package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexMakesC0de/anime-watch/constant"
	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/AlexMakesC0de/anime-watch/match"
	"github.com/AlexMakesC0de/anime-watch/provider"
	"github.com/AlexMakesC0de/anime-watch/proxy"
	"github.com/AlexMakesC0de/anime-watch/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// ErrNoMatchFound reports that no search strategy produced an accepted match.
var ErrNoMatchFound = errors.New("no provider match found, supply a manual source")

type (
	// Searcher queries the provider search page.
	Searcher interface {
		Search(ctx context.Context, query string) ([]provider.SearchResult, error)
	}

	// Extractor captures the sources of one episode.
	Extractor interface {
		GetEpisodeSources(ctx context.Context, slug string, episode int) (*source.StreamingInfo, error)
	}

	// MappingStore persists catalogue-to-slug mappings.
	MappingStore interface {
		Get(id int, provider string) mo.Option[string]
		Set(id int, provider, slug string) error
		Clear(id int) error
	}

	// DomainResetter forgets the memoized mirror.
	DomainResetter interface {
		ResetDomain()
	}

	// Registrar receives the session of each successful extraction.
	Registrar interface {
		Register(proxy.Registration)
	}
)

// Deps are the collaborators of a Service.
type Deps struct {
	Searcher  Searcher
	Extractor Extractor
	Mappings  MappingStore
	Mirror    DomainResetter
	Proxy     Registrar
	Session   proxy.Fetcher
	Weights   match.Weights
	// Provider names mapping rows, defaults to constant.Provider.
	Provider string
}

// Service implements FetchEpisodeSources and ClearProviderMapping.
type Service struct {
	deps Deps
}

// NewService creates a coordinator over deps.
func NewService(deps Deps) *Service {
	if deps.Provider == "" {
		deps.Provider = constant.Provider
	}
	if deps.Weights == (match.Weights{}) {
		deps.Weights = match.DefaultWeights
	}
	return &Service{deps: deps}
}

// mappingProvider keys dub matches apart from sub matches of the same catalogue entry.
func (s *Service) mappingProvider(audio match.Audio) string {
	if audio == match.Dub {
		return s.deps.Provider + "-dub"
	}
	return s.deps.Provider
}

// FetchEpisodeSources resolves a catalogue entry to playable, proxied sources.
func (s *Service) FetchEpisodeSources(ctx context.Context, catalogueID int, title, altTitle string, episode int, audio match.Audio) (*source.StreamingInfo, error) {
	providerKey := s.mappingProvider(audio)

	slug, cached := s.deps.Mappings.Get(catalogueID, providerKey).Get()
	if cached {
		log.Infof("using cached mapping %d -> %s", catalogueID, slug)
	} else {
		candidate, err := s.findMatch(ctx, title, altTitle, audio)
		if err != nil {
			return nil, err
		}

		slug = candidate.Slug
		if err := s.deps.Mappings.Set(catalogueID, providerKey, slug); err != nil {
			log.Warnf("persisting mapping %d -> %s: %v", catalogueID, slug, err)
		}
	}

	info, err := s.deps.Extractor.GetEpisodeSources(ctx, slug, episode)
	if err != nil && cached && ctx.Err() == nil {
		log.Warnf("cached slug %s failed (%v), resetting mirror and retrying", slug, err)
		s.deps.Mirror.ResetDomain()
		info, err = s.deps.Extractor.GetEpisodeSources(ctx, slug, episode)
	}
	if err != nil {
		return nil, err
	}

	s.deps.Proxy.Register(proxy.Registration{Session: s.deps.Session, Referer: info.Referer()})
	return info, nil
}

// ClearProviderMapping forces a new match on the next fetch of catalogueID.
func (s *Service) ClearProviderMapping(catalogueID int) error {
	return s.deps.Mappings.Clear(catalogueID)
}

// attempt is one search query and the titles its results are scored against.
type attempt struct {
	query, title, altTitle string
}

// attempts returns the search strategy: both titles first, then both with
// season tokens and punctuation stripped. Empty and repeated queries are skipped.
func attempts(title, altTitle string) []attempt {
	simpleTitle, simpleAlt := match.Simplify(title), match.Simplify(altTitle)

	all := []attempt{
		{title, title, altTitle},
		{altTitle, title, altTitle},
		{simpleTitle, simpleTitle, simpleAlt},
		{simpleAlt, simpleTitle, simpleAlt},
	}

	all = lo.Filter(all, func(a attempt, _ int) bool { return strings.TrimSpace(a.query) != "" })
	return lo.UniqBy(all, func(a attempt) string { return strings.ToLower(strings.TrimSpace(a.query)) })
}

func (s *Service) findMatch(ctx context.Context, title, altTitle string, audio match.Audio) (match.Candidate, error) {
	for _, a := range attempts(title, altTitle) {
		if err := ctx.Err(); err != nil {
			return match.Candidate{}, err
		}

		results, err := s.deps.Searcher.Search(ctx, a.query)
		if err != nil {
			log.Warnf("search %q: %v", a.query, err)
			continue
		}

		if best, ok := s.deps.Weights.FindBestMatch(results, a.title, a.altTitle, audio).Get(); ok {
			return best, nil
		}
	}

	return match.Candidate{}, fmt.Errorf("%w: %q", ErrNoMatchFound, title)
}
