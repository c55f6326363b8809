package provider

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
)

// Search-page selectors. The provider renders titles and covers as sibling
// blocks of each result row, so both streams are collected and zipped by index.
const (
	searchAnchorSelector = "ul.items li p.name a"
	searchImageSelector  = "ul.items li div.img img"
)

// SearchResult is one row of the provider's search page.
type SearchResult struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	ImageURL string `json:"imageUrl"`
}

// ParseSearchResults extracts search rows from a search page served by origin.
func ParseSearchResults(r io.Reader, origin string) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var images []string
	doc.Find(searchImageSelector).Each(func(_ int, s *goquery.Selection) {
		images = append(images, normalizeURL(s.AttrOr("src", ""), origin))
	})

	var results []SearchResult
	doc.Find(searchAnchorSelector).Each(func(i int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		slug := slugOf(href)
		if slug == "" {
			return
		}

		title := strings.TrimSpace(s.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(s.Text())
		}

		result := SearchResult{
			Slug:  slug,
			Title: title,
			URL:   normalizeURL(href, origin),
		}
		if i < len(images) {
			result.ImageURL = images[i]
		}
		results = append(results, result)
	})

	return results, nil
}

// ParseEmbedServers returns every data-video URL of an episode page in document order.
func ParseEmbedServers(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse episode page: %w", err)
	}

	var servers []string
	doc.Find("[data-video]").Each(func(_ int, s *goquery.Selection) {
		server := strings.TrimSpace(s.AttrOr("data-video", ""))
		if server == "" {
			return
		}
		servers = append(servers, normalizeURL(server, ""))
	})

	return lo.Uniq(servers), nil
}

// ParseIframeSrc returns the src of the first iframe on an embed page.
func ParseIframeSrc(r io.Reader, pageURL string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", false, fmt.Errorf("parse embed page: %w", err)
	}

	src := strings.TrimSpace(doc.Find("iframe[src]").First().AttrOr("src", ""))
	if src == "" || strings.HasPrefix(src, "about:") || strings.HasPrefix(src, "javascript:") {
		return "", false, nil
	}

	return normalizeURL(src, pageURL), true, nil
}

// slugOf extracts the provider slug from a /category/<slug> link.
func slugOf(href string) string {
	if href == "" {
		return ""
	}
	if u, err := url.Parse(href); err == nil {
		href = u.Path
	}
	slug := path.Base(strings.TrimRight(href, "/"))
	if slug == "." || slug == "/" {
		return ""
	}
	return slug
}

// normalizeURL upgrades protocol-relative URLs to https and resolves relative ones against base.
func normalizeURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"), base == "":
		return raw
	}

	b, err := url.Parse(base)
	if err != nil {
		return raw
	}
	ref, err := b.Parse(raw)
	if err != nil {
		return raw
	}
	return ref.String()
}
