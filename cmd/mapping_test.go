package cmd

import (
	"testing"

	"github.com/AlexMakesC0de/anime-watch/mapping"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFilterMappings(t *testing.T) {
	Convey("Given persisted mappings", t, func() {
		rows := []mapping.ProviderMapping{
			{CatalogueID: 1, Provider: "gogoanime", Slug: "shingeki-no-kyojin"},
			{CatalogueID: 2, Provider: "gogoanime", Slug: "one-piece"},
			{CatalogueID: 2, Provider: "gogoanime-dub", Slug: "one-piece-dub"},
		}

		slugs := func(rows []mapping.ProviderMapping) []string {
			return lo.Map(rows, func(m mapping.ProviderMapping, _ int) string { return m.Slug })
		}

		Convey("An empty filter keeps every row", func() {
			So(filterMappings(rows, ""), ShouldHaveLength, 3)
		})

		Convey("A fuzzy filter matches slug subsequences case-insensitively", func() {
			So(slugs(filterMappings(rows, "OnePc")), ShouldResemble, []string{"one-piece", "one-piece-dub"})
			So(slugs(filterMappings(rows, "kyojin")), ShouldResemble, []string{"shingeki-no-kyojin"})
		})

		Convey("A filter matching nothing yields no rows", func() {
			So(filterMappings(rows, "naruto"), ShouldBeEmpty)
		})
	})
}
