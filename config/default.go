// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/AlexMakesC0de/anime-watch/constant"
	"github.com/AlexMakesC0de/anime-watch/key"
	"github.com/AlexMakesC0de/anime-watch/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	prefix := strings.ToUpper(EnvKeyReplacer.Replace(constant.App) + "_")
	return prefix + strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		if f.isDuration() {
			return "duration"
		}
		return "string"
	case int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// isDuration reports whether the field holds a duration in its string form.
func (f *Field) isDuration() bool {
	s, ok := f.Value.(string)
	if !ok {
		return false
	}
	_, err := time.ParseDuration(s)
	return err == nil
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

// DefaultMirrors is the ordered candidate list probed by the mirror resolver.
var DefaultMirrors = []string{
	"https://anitaku.to",
	"https://anitaku.pe",
	"https://gogoanime3.co",
	"https://gogoanime3.net",
	"https://anitaku.so",
}

// DefaultFingerprints are literal substrings that only appear on genuine provider pages.
var DefaultFingerprints = []string{
	"gogoanime",
	"anitaku",
	"last_episodes",
	"anime_muti_link",
}

// DefaultBlocklist lists tracking and ad-network hosts whose requests are failed inside the browser session.
var DefaultBlocklist = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"googlesyndication.com",
	"doubleclick.net",
	"adservice.google.com",
	"facebook.net",
	"histats.com",
	"mc.yandex.ru",
	"hotjar.com",
	"scorecardresearch.com",
	"popads.net",
	"popcash.net",
	"propellerads.com",
	"adsterra.com",
	"exoclick.com",
	"juicyads.com",
	"disqus.com",
}

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.ProviderMirrors, DefaultMirrors, "Candidate provider domains, probed in order")
	register(key.ProviderFingerprints, DefaultFingerprints, "Substrings that identify a genuine provider page")
	register(key.MirrorProbeTimeout, "8s", "Timeout of a single mirror liveness probe")
	register(key.MatchAcceptThreshold, 30.0, "Minimum score (exclusive) for a title match to be accepted. From 0 to 100")
	register(key.MatchLengthPenaltyCap, 20.0, "Maximum score penalty for candidates longer than the query")
	register(key.ExtractorDebounce, "2s", "Quiet period after the last captured media request before an extraction resolves")
	register(key.ExtractorCeiling, "25s", "Hard ceiling of a single extraction session")
	register(key.ProxyRetries, 3, "Retries of a proxied request after a 403 or transport error")
	register(key.ProxyBackoff, "300ms", "Linear backoff step between proxy retries")
	register(key.BrowserHeadless, true, "Run the browser engine headless")
	register(key.BrowserSession, "default", "Name of the persistent browser session.\nCookies and anti-bot clearance survive across runs")
	register(key.BrowserExecPath, "", "Path to a Chrome/Chromium executable.\nDetected automatically if empty")
	register(key.BrowserBlocklist, DefaultBlocklist, "Hosts whose requests are blocked inside the browser session")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(style.Purple),
	"blue":     style.Fg(style.Blue),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(f *Field) string { return f.typeName() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(style.Green)(b)
			}
			return style.Fg(style.Red)(b)
		case string:
			return style.Fg(style.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename . }}`))
