package source

import "github.com/samber/mo"

// StreamingInfo is the unit returned to the caller for one episode.
type StreamingInfo struct {
	Sources []VideoSource     `json:"sources"`
	Headers map[string]string `json:"headers,omitempty"`

	// EmbedURL is the resolved player page, kept for a UI fallback when the sources fail to play.
	EmbedURL mo.Option[string] `json:"embedUrl"`
}

// Referer returns the Referer header the sources were captured with.
func (s *StreamingInfo) Referer() string {
	if s == nil || s.Headers == nil {
		return ""
	}
	return s.Headers["Referer"]
}

// Empty reports whether no source was captured.
func (s *StreamingInfo) Empty() bool {
	return s == nil || len(s.Sources) == 0
}
