package mapping

import (
	"testing"

	"github.com/AlexMakesC0de/anime-watch/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCache(t *testing.T) {
	Convey("Given an empty mapping store", t, func() {
		filesystem.SetMemMapFs()
		cache := New("/config/mappings.json")

		Convey("Get should report no slug", func() {
			So(cache.Get(16498, "gogoanime").IsAbsent(), ShouldBeTrue)
			So(cache.All(), ShouldBeEmpty)
		})

		Convey("Clear should be a no-op", func() {
			So(cache.Clear(16498), ShouldBeNil)
		})

		Convey("When mappings are stored", func() {
			So(cache.Set(16498, "gogoanime", "shingeki-no-kyojin"), ShouldBeNil)
			So(cache.Set(16498, "other", "aot"), ShouldBeNil)
			So(cache.Set(1535, "gogoanime", "death-note"), ShouldBeNil)

			Convey("Get should return them per provider", func() {
				So(cache.Get(16498, "gogoanime").OrEmpty(), ShouldEqual, "shingeki-no-kyojin")
				So(cache.Get(16498, "other").OrEmpty(), ShouldEqual, "aot")
			})

			Convey("Set should overwrite the row", func() {
				So(cache.Set(16498, "gogoanime", "shingeki-no-kyojin-dub"), ShouldBeNil)
				So(cache.Get(16498, "gogoanime").OrEmpty(), ShouldEqual, "shingeki-no-kyojin-dub")
				So(cache.All(), ShouldHaveLength, 3)
			})

			Convey("All should be ordered by id, then provider", func() {
				rows := cache.All()
				So(rows, ShouldHaveLength, 3)
				So(rows[0].CatalogueID, ShouldEqual, 1535)
				So(rows[1].Provider, ShouldEqual, "gogoanime")
				So(rows[2].Provider, ShouldEqual, "other")
				So(rows[0].CachedAt.IsZero(), ShouldBeFalse)
			})

			Convey("Clear should drop every provider row of the id", func() {
				So(cache.Clear(16498), ShouldBeNil)
				So(cache.Get(16498, "gogoanime").IsAbsent(), ShouldBeTrue)
				So(cache.Get(16498, "other").IsAbsent(), ShouldBeTrue)
				So(cache.Get(1535, "gogoanime").OrEmpty(), ShouldEqual, "death-note")
			})

			Convey("A second store over the same file should see them", func() {
				reopened := New("/config/mappings.json")
				So(reopened.Get(1535, "gogoanime").OrEmpty(), ShouldEqual, "death-note")
			})
		})
	})
}
