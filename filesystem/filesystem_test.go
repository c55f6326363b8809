package filesystem

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestApi(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")
		})
	})
}

func TestGacheFs(t *testing.T) {
	Convey("Given the gache adapter on an in-memory backend", t, func() {
		SetMemMapFs()
		fs := GacheFs{}

		Convey("It should create directories and files through the active backend", func() {
			So(fs.MkdirAll("/state/mappings", os.ModePerm), ShouldBeNil)

			f, err := fs.OpenFile("/state/mappings/m.json", os.O_CREATE|os.O_RDWR, 0o644)
			So(err, ShouldBeNil)
			_, err = f.Write([]byte("{}"))
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			content, err := API().ReadFile("/state/mappings/m.json")
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "{}")
		})
	})
}
