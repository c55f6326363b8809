package stream

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/AlexMakesC0de/anime-watch/filesystem"
	"github.com/AlexMakesC0de/anime-watch/mapping"
	"github.com/AlexMakesC0de/anime-watch/match"
	"github.com/AlexMakesC0de/anime-watch/provider"
	"github.com/AlexMakesC0de/anime-watch/proxy"
	"github.com/AlexMakesC0de/anime-watch/source"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSearcher struct {
	results map[string][]provider.SearchResult
	errs    map[string]error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, q string) ([]provider.SearchResult, error) {
	f.queries = append(f.queries, q)
	if err := f.errs[q]; err != nil {
		return nil, err
	}
	return f.results[q], nil
}

type fakeExtractor struct {
	fails int
	calls []string
}

func (f *fakeExtractor) GetEpisodeSources(_ context.Context, slug string, episode int) (*source.StreamingInfo, error) {
	f.calls = append(f.calls, slug)
	if len(f.calls) <= f.fails {
		return nil, errors.New("every embed server failed")
	}
	player := "https://player.example.com/e/" + slug
	return &source.StreamingInfo{
		Sources:  []source.VideoSource{{URL: "http://127.0.0.1:9000/proxy?url=x", Quality: "auto", IsM3U8: true}},
		Headers:  map[string]string{"Referer": player},
		EmbedURL: mo.Some(player),
	}, nil
}

type fakeMirror struct{ resets int }

func (f *fakeMirror) ResetDomain() { f.resets++ }

type fakeRegistrar struct{ last *proxy.Registration }

func (f *fakeRegistrar) Register(r proxy.Registration) { f.last = &r }

type nopSession struct{}

func (nopSession) Fetch(context.Context, string, http.Header) (*http.Response, error) {
	return nil, errors.New("unused")
}

type fixture struct {
	searcher  *fakeSearcher
	extractor *fakeExtractor
	mirror    *fakeMirror
	registrar *fakeRegistrar
	mappings  *mapping.Cache
	service   *Service
}

func newFixture() *fixture {
	filesystem.SetMemMapFs()
	f := &fixture{
		searcher:  &fakeSearcher{results: map[string][]provider.SearchResult{}, errs: map[string]error{}},
		extractor: &fakeExtractor{},
		mirror:    &fakeMirror{},
		registrar: &fakeRegistrar{},
		mappings:  mapping.New("/config/mappings.json"),
	}
	f.service = NewService(Deps{
		Searcher:  f.searcher,
		Extractor: f.extractor,
		Mappings:  f.mappings,
		Mirror:    f.mirror,
		Proxy:     f.registrar,
		Session:   nopSession{},
	})
	return f
}

func TestFetchEpisodeSources(t *testing.T) {
	ctx := context.Background()

	Convey("Given an unmapped title found by its primary search", t, func() {
		f := newFixture()
		f.searcher.results["Attack on Titan"] = []provider.SearchResult{
			{Slug: "shingeki-no-kyojin-the-final-season", Title: "Attack on Titan: Final Season"},
			{Slug: "shingeki-no-kyojin", Title: "Attack on Titan"},
		}

		info, err := f.service.FetchEpisodeSources(ctx, 16498, "Attack on Titan", "Shingeki no Kyojin", 3, match.Sub)

		Convey("It should extract the matched slug and register the session", func() {
			So(err, ShouldBeNil)
			So(info.Sources, ShouldHaveLength, 1)
			So(f.extractor.calls, ShouldResemble, []string{"shingeki-no-kyojin"})
			So(f.searcher.queries, ShouldResemble, []string{"Attack on Titan"})
			So(f.registrar.last, ShouldNotBeNil)
			So(f.registrar.last.Referer, ShouldEqual, "https://player.example.com/e/shingeki-no-kyojin")
		})

		Convey("It should persist the mapping", func() {
			So(f.mappings.Get(16498, "gogoanime").OrEmpty(), ShouldEqual, "shingeki-no-kyojin")
			So(f.mappings.Get(16498, "gogoanime-dub").IsAbsent(), ShouldBeTrue)
		})
	})

	Convey("Given a title only found after simplification", t, func() {
		f := newFixture()
		f.searcher.errs["Mob Psycho 100 II"] = errors.New("timeout")
		f.searcher.results["Mob Psycho 100"] = []provider.SearchResult{
			{Slug: "mob-psycho-100", Title: "Mob Psycho 100"},
		}

		_, err := f.service.FetchEpisodeSources(ctx, 21507, "Mob Psycho 100 Season 2", "Mob Psycho 100 II", 1, match.Sub)

		Convey("It should try titles, then simplified titles", func() {
			So(err, ShouldBeNil)
			So(f.searcher.queries, ShouldResemble, []string{"Mob Psycho 100 Season 2", "Mob Psycho 100 II", "Mob Psycho 100"})
			So(f.extractor.calls, ShouldResemble, []string{"mob-psycho-100"})
		})
	})

	Convey("Given a title with no acceptable result", t, func() {
		f := newFixture()
		f.searcher.results["xyz-nonexistent-title"] = []provider.SearchResult{{Slug: "naruto", Title: "Naruto"}}

		_, err := f.service.FetchEpisodeSources(ctx, 1, "xyz-nonexistent-title", "", 1, match.Sub)

		Convey("It should ask for a manual source", func() {
			So(errors.Is(err, ErrNoMatchFound), ShouldBeTrue)
			So(f.extractor.calls, ShouldBeEmpty)
			So(f.mappings.All(), ShouldBeEmpty)
		})
	})

	Convey("Given a cached mapping whose slug fails once", t, func() {
		f := newFixture()
		So(f.mappings.Set(16498, "gogoanime", "shingeki-no-kyojin"), ShouldBeNil)
		f.extractor.fails = 1

		info, err := f.service.FetchEpisodeSources(ctx, 16498, "Attack on Titan", "", 1, match.Sub)

		Convey("It should reset the mirror and retry once without searching", func() {
			So(err, ShouldBeNil)
			So(info, ShouldNotBeNil)
			So(f.mirror.resets, ShouldEqual, 1)
			So(f.extractor.calls, ShouldHaveLength, 2)
			So(f.searcher.queries, ShouldBeEmpty)
		})
	})

	Convey("Given a fresh match whose extraction fails", t, func() {
		f := newFixture()
		f.searcher.results["Naruto"] = []provider.SearchResult{{Slug: "naruto", Title: "Naruto"}}
		f.extractor.fails = 5

		_, err := f.service.FetchEpisodeSources(ctx, 20, "Naruto", "", 1, match.Sub)

		Convey("It should not retry or register anything", func() {
			So(err, ShouldNotBeNil)
			So(f.mirror.resets, ShouldEqual, 0)
			So(f.extractor.calls, ShouldHaveLength, 1)
			So(f.registrar.last, ShouldBeNil)
		})
	})
}

func TestClearProviderMapping(t *testing.T) {
	Convey("ClearProviderMapping should force a new search", t, func() {
		f := newFixture()
		So(f.mappings.Set(20, "gogoanime", "naruto-old"), ShouldBeNil)
		So(f.service.ClearProviderMapping(20), ShouldBeNil)

		f.searcher.results["Naruto"] = []provider.SearchResult{{Slug: "naruto", Title: "Naruto"}}
		_, err := f.service.FetchEpisodeSources(context.Background(), 20, "Naruto", "", 1, match.Sub)

		So(err, ShouldBeNil)
		So(f.searcher.queries, ShouldResemble, []string{"Naruto"})
		So(f.mappings.Get(20, "gogoanime").OrEmpty(), ShouldEqual, "naruto")
	})
}
