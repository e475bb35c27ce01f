package discovery

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"eetcorpus/scraper"
)

// FetchFeedLinks pulls article links from a site RSS or Atom feed instead
// of paginated listings. The gofeed library detects and handles both
// formats. The same anchor-text heuristic used for listing links applies to
// item titles.
func FetchFeedLinks(ctx context.Context, feedURL string, cfg *scraper.ListingConfig) ([]string, error) {
	fp := gofeed.NewParser()
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feedLinks(feed, cfg), nil
}

// feedLinks converts feed items to absolute, deduplicated article URLs.
func feedLinks(feed *gofeed.Feed, cfg *scraper.ListingConfig) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		if len(item.Title) <= cfg.MinLinkTextLen {
			continue
		}
		url := AbsoluteURL(item.Link, cfg.Origin)
		if seen[url] {
			continue
		}
		seen[url] = true
		urls = append(urls, url)
	}
	return urls
}
