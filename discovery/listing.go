// Package discovery collects article URLs from paginated listing pages via
// a headless browser session, or from a site RSS feed.
package discovery

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"eetcorpus/scraper"
)

// Listing parse errors.
var (
	// ErrNoContainer indicates none of the known listing containers were
	// present in the page. The page failed to load properly.
	ErrNoContainer = errors.New("no listing container found")
)

// Link is a candidate article link with its visible anchor text.
type Link struct {
	URL  string
	Text string
}

// ParseListing extracts candidate article links from listing-page HTML.
// Link selectors are tried in priority order and the first selector with
// matches wins. A page whose containers are present but hold no matching
// anchors yields an empty slice with no error (degraded success); a page
// with no containers at all returns ErrNoContainer.
func ParseListing(html string, cfg *scraper.ListingConfig) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	for _, selector := range cfg.LinkSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}

		var links []Link
		sel.Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			links = append(links, Link{
				URL:  href,
				Text: strings.TrimSpace(s.Text()),
			})
		})
		return links, nil
	}

	// No anchors matched; distinguish a degraded page from a failed one.
	for _, selector := range cfg.ContainerSelectors {
		if doc.Find(selector).Length() > 0 {
			return nil, nil
		}
	}
	return nil, ErrNoContainer
}

// FilterLinks drops links whose visible text is too short to be an article
// title and absolutizes the survivors against the configured origin.
func FilterLinks(links []Link, cfg *scraper.ListingConfig) []string {
	var urls []string
	for _, link := range links {
		if link.URL == "" || link.Text == "" {
			continue
		}
		if len(link.Text) <= cfg.MinLinkTextLen {
			continue
		}
		urls = append(urls, AbsoluteURL(link.URL, cfg.Origin))
	}
	return urls
}

// AbsoluteURL normalizes a relative path to an absolute URL using the given
// origin prefix. Already-absolute URLs pass through unchanged.
func AbsoluteURL(href, origin string) string {
	if strings.HasPrefix(href, "/") {
		return origin + href
	}
	return href
}
