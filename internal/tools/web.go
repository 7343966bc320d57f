package tools

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	fetchTimeout   = 10 * time.Second
	maxPageChars   = 4000
	minUsefulChars = 80
	fetchUserAgent = "Mozilla/5.0 (compatible; ArgusBot/1.0)"
)

// WebFetcher retrieves and extracts readable text from web pages. A zero
// value is usable; Client defaults to one with a sane timeout.
type WebFetcher struct {
	Client *http.Client
}

// PageText fetches a URL and returns its extracted text, bounded in size.
// Access-restricted or script-rendered pages produce a human-readable
// explanation instead; the function never returns an error.
func (w *WebFetcher) PageText(url string) string {
	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	if strings.HasPrefix(url, "www.") {
		url = "https://" + url
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Sprintf("Could not fetch %s: %v", url, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Sprintf("Could not fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return fmt.Sprintf("Access to %s is restricted (HTTP %d); the site does not allow automated reading.", url, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Sprintf("Could not fetch %s: HTTP %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Sprintf("Could not parse %s: %v", url, err)
	}

	doc.Find("script, style, noscript, nav, footer").Remove()
	text := collapseWhitespace(doc.Find("body").Text())

	if len(text) < minUsefulChars {
		return fmt.Sprintf("The page at %s appears to be script-rendered and exposes no readable text content.", url)
	}
	if len(text) > maxPageChars {
		text = text[:maxPageChars] + "..."
	}
	return text
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
