package cmd

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/AlexMakesC0de/anime-watch/filesystem"
	"github.com/spf13/afero"
	. "github.com/smartystreets/goconvey/convey"
)

// failingRemoveFs refuses every removal.
type failingRemoveFs struct {
	afero.Fs
}

var errReadOnly = errors.New("read-only file system")

func (f failingRemoveFs) Remove(string) error    { return errReadOnly }
func (f failingRemoveFs) RemoveAll(string) error { return errReadOnly }

func TestClearPath(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		filesystem.SetMemMapFs()
		fsys := filesystem.API()
		So(fsys.MkdirAll("/cache/searches", 0o755), ShouldBeNil)
		So(afero.WriteFile(fsys, "/cache/searches/a.json", []byte("[]"), 0o644), ShouldBeNil)
		So(afero.WriteFile(fsys, "/config/mappings.json", []byte("{}"), 0o644), ShouldBeNil)

		Convey("Files and directories should be removed", func() {
			So(clearPath("/config/mappings.json"), ShouldBeNil)
			So(clearPath("/cache/searches"), ShouldBeNil)

			exists, _ := afero.Exists(fsys, "/cache/searches/a.json")
			So(exists, ShouldBeFalse)
			exists, _ = afero.Exists(fsys, "/config/mappings.json")
			So(exists, ShouldBeFalse)
		})

		Convey("A missing path should count as cleared", func() {
			So(clearPath("/config/never-written.json"), ShouldBeNil)
		})

		Convey("A failed removal should be reported", func() {
			filesystem.Set(failingRemoveFs{Fs: fsys.Fs})
			defer filesystem.SetMemMapFs()

			err := clearPath("/config/mappings.json")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, errReadOnly), ShouldBeTrue)
			So(errors.Is(err, fs.ErrNotExist), ShouldBeFalse)
		})
	})
}
