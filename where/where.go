// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/AlexMakesC0de/anime-watch/constant"
	"github.com/AlexMakesC0de/anime-watch/filesystem"
	"github.com/AlexMakesC0de/anime-watch/util"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable used to override the default configuration directory.
const EnvConfigPath = "ANIME_WATCH_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the primary application configuration directory.
// ANIME_WATCH_CONFIG_PATH takes precedence over the platform default.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.App))
}

// Cache resolves the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.App))
}

// Logs resolves the directory used for diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Mappings resolves the catalogue-id to provider-slug mapping store.
func Mappings() string {
	return filepath.Join(Config(), "mappings.json")
}

// Searches resolves the directory of cached provider search pages.
func Searches() string {
	return ensureDir(filepath.Join(Cache(), "searches"))
}

// Sessions resolves the parent directory of all persistent browser profiles.
func Sessions() string {
	return ensureDir(filepath.Join(Cache(), "sessions"))
}

// BrowserProfile resolves the user-data directory of the named browser session.
// Profiles live on the OS filesystem because the browser process writes them directly.
func BrowserProfile(name string) string {
	path := filepath.Join(Sessions(), util.SanitizeFilename(name))
	lo.Must0(os.MkdirAll(path, os.ModePerm))
	return path
}
