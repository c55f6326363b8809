package config

import (
	"os"
	"testing"
	"time"

	"github.com/AlexMakesC0de/anime-watch/filesystem"
	"github.com/AlexMakesC0de/anime-watch/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			So(Setup(), ShouldBeNil)
			for name := range Default {
				So(viper.IsSet(name), ShouldBeTrue)
			}
			So(viper.GetDuration(key.ExtractorDebounce), ShouldEqual, 2*time.Second)
			So(viper.GetDuration(key.ExtractorCeiling), ShouldEqual, 25*time.Second)
			So(viper.GetDuration(key.MirrorProbeTimeout), ShouldEqual, 8*time.Second)
			So(viper.GetInt(key.MatchAcceptThreshold), ShouldEqual, 30)
			So(viper.GetStringSlice(key.ProviderMirrors), ShouldResemble, DefaultMirrors)
		})

		Convey("Environment variables should override defaults", func() {
			So(os.Setenv("ANIME_WATCH_PROXY_RETRIES", "5"), ShouldBeNil)
			defer os.Unsetenv("ANIME_WATCH_PROXY_RETRIES")

			So(Setup(), ShouldBeNil)
			So(viper.GetInt(key.ProxyRetries), ShouldEqual, 5)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("extractor.debounce"), ShouldEqual, "extractor_debounce")
		})
	})
}

func TestFieldEnv(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.BrowserExecPath]

		Convey("Env should be prefixed with the application name", func() {
			So(field.Env(), ShouldEqual, "ANIME_WATCH_BROWSER_EXEC_PATH")
		})

		Convey("Pretty should mention the key", func() {
			So(field.Pretty(), ShouldContainSubstring, key.BrowserExecPath)
		})
	})
}
