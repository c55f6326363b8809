package source

import (
	"encoding/json"
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVideoSource(t *testing.T) {
	Convey("VideoSource", t, func() {
		v := VideoSource{URL: "http://127.0.0.1:5000/proxy?url=x", Quality: "1080p", IsM3U8: true}

		Convey("String representation", func() {
			So(v.String(), ShouldEqual, "1080p")
			v.Quality = ""
			So(v.String(), ShouldEqual, "http://127.0.0.1:5000/proxy?url=x")
		})
	})
}

func TestStreamingInfo(t *testing.T) {
	Convey("StreamingInfo", t, func() {
		info := &StreamingInfo{
			Sources:  []VideoSource{{URL: "u", Quality: "auto", IsM3U8: true}},
			Headers:  map[string]string{"Referer": "https://embed.example/e/1"},
			EmbedURL: mo.Some("https://embed.example/e/1"),
		}

		Convey("Referer comes from the headers", func() {
			So(info.Referer(), ShouldEqual, "https://embed.example/e/1")
			So((*StreamingInfo)(nil).Referer(), ShouldEqual, "")
		})

		Convey("Empty reports captured sources", func() {
			So(info.Empty(), ShouldBeFalse)
			So((&StreamingInfo{}).Empty(), ShouldBeTrue)
		})

		Convey("JSON uses the player field names", func() {
			b, err := json.Marshal(info)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"isM3U8":true`)
			So(string(b), ShouldContainSubstring, `"embedUrl":"https://embed.example/e/1"`)
		})
	})
}
