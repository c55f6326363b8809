// Package source defines the value types handed to the player surface.
package source

// VideoSource is one playable media URL captured from an embed page.
// URL already points at the local streaming proxy.
type VideoSource struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
	IsM3U8  bool   `json:"isM3U8"`
}

// String returns the quality or URL for display.
func (v VideoSource) String() string {
	if v.Quality != "" {
		return v.Quality
	}
	return v.URL
}
