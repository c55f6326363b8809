package match

import (
	"testing"

	"github.com/AlexMakesC0de/anime-watch/provider"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

var titanResults = []provider.SearchResult{
	{Slug: "shingeki-no-kyojin-the-final-season", Title: "Attack on Titan: Final Season"},
	{Slug: "shingeki-no-kyojin", Title: "Attack on Titan"},
	{Slug: "shingeki-no-kyojin-dub", Title: "Attack on Titan (Dub)"},
	{Slug: "shingeki-no-kyojin-movie", Title: "Attack on Titan Movie"},
}

func TestNormalize(t *testing.T) {
	Convey("Normalize should lowercase, strip punctuation and collapse spaces", t, func() {
		So(Normalize("  Attack on   Titan: Final Season! "), ShouldEqual, "attack on titan final season")
		So(Normalize("Re:Zero"), ShouldEqual, "rezero")
		So(Normalize("***"), ShouldEqual, "")
	})
}

func TestSimplify(t *testing.T) {
	Convey("Simplify should drop season, part and cour tokens", t, func() {
		So(Simplify("Attack on Titan Season 3: Part 2"), ShouldEqual, "Attack on Titan")
		So(Simplify("Mob Psycho 100 2nd Season"), ShouldEqual, "Mob Psycho 100")
		So(Simplify("Spy x Family Cour 2"), ShouldEqual, "Spy x Family")
		So(Simplify("Dr. Stone S3"), ShouldEqual, "Dr Stone")
	})
}

func TestScore(t *testing.T) {
	Convey("Given the default weights", t, func() {
		w := DefaultWeights

		Convey("An exact normalized match scores 100", func() {
			So(w.Score("Attack on Titan", "attack on titan!", ""), ShouldEqual, 100)
			So(w.Score("Shingeki no Kyojin", "Attack on Titan", "Shingeki no Kyojin"), ShouldEqual, 100)
		})

		Convey("A longer title containing the query is penalized up to the cap", func() {
			So(w.Score("Attack on Titan: Final Season", "Attack on Titan", ""), ShouldEqual, 60)
		})

		Convey("A short excess is penalized two points per character", func() {
			// "attack on titan movie" is six characters longer than the query.
			So(w.Score("Attack on Titan Movie", "Attack on Titan", ""), ShouldEqual, 68)
		})

		Convey("Alt title containment scores below title containment", func() {
			So(w.Score("Kyojin", "Attack on Titan", "Shingeki no Kyojin"), ShouldEqual, 75)
		})

		Convey("Word overlap is scaled by the overlap weight", func() {
			// Two of four query words shared, same length as the shorter query.
			So(w.Score("one two five six", "one two three four", ""), ShouldEqual, 30)
		})

		Convey("Unrelated titles never go negative", func() {
			So(w.Score("Naruto Shippuden The Movie", "xyz", ""), ShouldEqual, 0)
		})
	})
}

func TestFindBestMatch(t *testing.T) {
	Convey("Given titan search results", t, func() {
		Convey("The exact title should win for sub", func() {
			best, ok := FindBestMatch(titanResults, "Attack on Titan", "Shingeki no Kyojin", Sub).Get()
			So(ok, ShouldBeTrue)
			So(best.Slug, ShouldEqual, "shingeki-no-kyojin")
			So(best.Score, ShouldEqual, 100)
		})

		Convey("The dub entry should win for dub", func() {
			best, ok := FindBestMatch(titanResults, "Attack on Titan", "", Dub).Get()
			So(ok, ShouldBeTrue)
			So(best.Slug, ShouldEqual, "shingeki-no-kyojin-dub")
		})

		Convey("An unknown title should not match", func() {
			So(FindBestMatch(titanResults, "xyz-nonexistent-title", "", Sub).IsAbsent(), ShouldBeTrue)
		})

		Convey("Empty results should not match", func() {
			So(FindBestMatch(nil, "Attack on Titan", "", Sub).IsAbsent(), ShouldBeTrue)
		})
	})

	Convey("Given a dub request with no dub entries", t, func() {
		results := []provider.SearchResult{{Slug: "frieren", Title: "Sousou no Frieren"}}

		Convey("It should fall back to the unfiltered results", func() {
			best, ok := FindBestMatch(results, "Sousou no Frieren", "", Dub).Get()
			So(ok, ShouldBeTrue)
			So(best.Slug, ShouldEqual, "frieren")
		})
	})

	Convey("Given a raised acceptance threshold", t, func() {
		w := DefaultWeights
		w.Accept = 70

		Convey("A penalized containment match should be rejected", func() {
			results := []provider.SearchResult{{Slug: "final", Title: "Attack on Titan: Final Season"}}
			So(w.FindBestMatch(results, "Attack on Titan", "", Sub).IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given results scoring the same", t, func() {
		results := []provider.SearchResult{
			{Slug: "far", Title: "zzzzz"},
			{Slug: "near", Title: "alphb"},
			{Slug: "short", Title: "zzz"},
		}
		ranked := DefaultWeights.Rank(results, "alpha", "")

		Convey("Shorter titles come first, then smaller edit distance", func() {
			So(lo.Map(ranked, func(c Candidate, _ int) string { return c.Slug }), ShouldResemble, []string{"short", "near", "far"})
		})
	})
}

func TestFilterAudio(t *testing.T) {
	Convey("FilterAudio should split entries by dub markers", t, func() {
		So(FilterAudio(titanResults, Dub), ShouldHaveLength, 1)
		So(FilterAudio(titanResults, Sub), ShouldHaveLength, 3)
		So(ParseAudio("DUB"), ShouldEqual, Dub)
		So(ParseAudio(""), ShouldEqual, Sub)
	})
}
