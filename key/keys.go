// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Provider - these keys describe the provider mirrors and how a genuine page is recognized.
const (
	ProviderMirrors      = "provider.mirrors"
	ProviderFingerprints = "provider.fingerprints"
)

// Mirror Probing - these keys bound the liveness checks issued against candidate mirrors.
const (
	MirrorProbeTimeout = "mirror.probe_timeout"
)

// Title Matching - these keys tune the acceptance of fuzzy title matches.
const (
	MatchAcceptThreshold  = "match.accept_threshold"
	MatchLengthPenaltyCap = "match.length_penalty_cap"
)

// Extraction - these keys govern the capture window of a browser extraction session.
const (
	ExtractorDebounce = "extractor.debounce"
	ExtractorCeiling  = "extractor.ceiling"
)

// Streaming Proxy - these keys configure upstream replay of player requests.
const (
	ProxyRetries = "proxy.retries"
	ProxyBackoff = "proxy.backoff"
)

// Browser Engine - these keys manage the shared headless browser and its persistent session.
const (
	BrowserHeadless  = "browser.headless"
	BrowserSession   = "browser.session"
	BrowserExecPath  = "browser.exec_path"
	BrowserBlocklist = "browser.blocklist"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern the command-line output.
const (
	CliColored = "cli.colored"
)
