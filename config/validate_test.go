package config

import (
	"errors"
	"testing"
	"time"

	"github.com/AlexMakesC0de/anime-watch/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestParse(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Unknown keys should suggest the closest one", func() {
			_, err := Parse("extractor.debunce", []string{"1s"})
			So(errors.Is(err, ErrUnknownKey), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, key.ExtractorDebounce)
		})

		Convey("Values should take the type of their default", func() {
			v, err := Parse(key.ProxyRetries, []string{"5"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 5)

			v, err = Parse(key.MatchAcceptThreshold, []string{"42.5"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 42.5)

			v, err = Parse(key.BrowserHeadless, []string{"false"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, false)

			v, err = Parse(key.BrowserBlocklist, []string{"ads.example.com", " ", "track.example.net"})
			So(err, ShouldBeNil)
			So(v, ShouldResemble, []string{"ads.example.com", "track.example.net"})
		})

		Convey("Malformed scalars should be rejected", func() {
			_, err := Parse(key.ProxyRetries, []string{"many"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)
		})

		Convey("Mirrors must be absolute http(s) URLs", func() {
			_, err := Parse(key.ProviderMirrors, []string{"https://anitaku.to", "anitaku.pe"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)

			_, err = Parse(key.ProviderMirrors, []string{"ftp://anitaku.to"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)

			v, err := Parse(key.ProviderMirrors, []string{"https://anitaku.to", "http://gogoanime3.co"})
			So(err, ShouldBeNil)
			So(v, ShouldResemble, []string{"https://anitaku.to", "http://gogoanime3.co"})
		})

		Convey("Blocklist entries must be bare hosts", func() {
			_, err := Parse(key.BrowserBlocklist, []string{"https://ads.example.com/"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)
		})

		Convey("Scores must stay within 0 to 100", func() {
			_, err := Parse(key.MatchAcceptThreshold, []string{"120"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)

			_, err = Parse(key.MatchLengthPenaltyCap, []string{"-1"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)
		})

		Convey("Durations must parse and be positive", func() {
			_, err := Parse(key.MirrorProbeTimeout, []string{"soon"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)

			_, err = Parse(key.MirrorProbeTimeout, []string{"0s"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)

			v, err := Parse(key.ProxyBackoff, []string{"0s"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "0s")
		})

		Convey("The debounce must stay below the extraction ceiling", func() {
			_, err := Parse(key.ExtractorDebounce, []string{"30s"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)

			_, err = Parse(key.ExtractorCeiling, []string{"1s"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)

			viper.Set(key.ExtractorCeiling, "40s")
			defer viper.Set(key.ExtractorCeiling, "25s")

			v, err := Parse(key.ExtractorDebounce, []string{"30s"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "30s")
			So(viper.GetDuration(key.ExtractorCeiling), ShouldEqual, 40*time.Second)
		})

		Convey("Log levels must be known to logrus", func() {
			_, err := Parse(key.LogsLevel, []string{"verbose"})
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)

			_, err = Parse(key.LogsLevel, []string{"trace"})
			So(err, ShouldBeNil)
		})
	})
}

func TestFieldType(t *testing.T) {
	Convey("Given registered fields", t, func() {
		Convey("Each should report its value type", func() {
			for k, want := range map[string]string{
				key.MatchAcceptThreshold: "float",
				key.ExtractorCeiling:     "duration",
				key.ProxyRetries:         "int",
				key.BrowserExecPath:      "string",
				key.BrowserHeadless:      "bool",
				key.ProviderMirrors:      "[]string",
			} {
				field := Default[k]
				So(field.typeName(), ShouldEqual, want)
			}
		})

		Convey("Pretty should show the value type", func() {
			field := Default[key.MatchAcceptThreshold]
			So(field.Pretty(), ShouldContainSubstring, "float")
		})
	})
}
