package util

import (
	"testing"

	"github.com/AlexMakesC0de/anime-watch/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeFilename(t *testing.T) {
	Convey("SanitizeFilename", t, func() {
		Convey("Should replace invalid chars", func() {
			So(SanitizeFilename("file:name?.txt"), ShouldEqual, "file_name_.txt")
		})
		Convey("Should collapse underscores", func() {
			So(SanitizeFilename("my  session"), ShouldEqual, "my_session")
		})
		Convey("Should trim separators", func() {
			So(SanitizeFilename("-default-"), ShouldEqual, "default")
		})
	})
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "source", "sources"), ShouldEqual, "1 source")
		So(Quantify(3, "source", "sources"), ShouldEqual, "3 sources")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("mappings"), ShouldEqual, "Mappings")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestDelete(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		So(fs.MkdirAll("/tmp/sessions/default", 0o755), ShouldBeNil)
		So(fs.WriteFile("/tmp/mappings.json", []byte("{}"), 0o644), ShouldBeNil)

		Convey("Delete removes files", func() {
			So(Delete("/tmp/mappings.json"), ShouldBeNil)
			exists, _ := fs.Exists("/tmp/mappings.json")
			So(exists, ShouldBeFalse)
		})

		Convey("Delete removes directories recursively", func() {
			So(Delete("/tmp/sessions"), ShouldBeNil)
			exists, _ := fs.Exists("/tmp/sessions/default")
			So(exists, ShouldBeFalse)
		})

		Convey("Delete reports missing paths", func() {
			So(Delete("/nope"), ShouldNotBeNil)
		})
	})
}
