// Package network provides pre-configured HTTP clients for provider communication and stream replay.
package network

import (
	"net/http"
	"time"
)

// Client is the plain HTTP client shared across the application.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

// Chrome is the Chrome-fingerprinted client used for provider pages and proxied media.
// It carries no overall timeout because segment bodies are streamed; callers bound requests with contexts.
var Chrome = &http.Client{
	Transport: NewChromeTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 30 * time.Second
	return t
}
