package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eetcorpus/scraper"
)

// TestParseListing_FirstSelectorWins verifies that once a link selector
// matches, lower-priority selectors are ignored.
func TestParseListing_FirstSelectorWins(t *testing.T) {
	html := `<html><body>
		<div class="segment-one">
			<a class="article-links" href="/news/chip-one">Article From Segment One</a>
		</div>
		<div class="segment-main">
			<a class="article-links" href="/news/chip-two">Article From Segment Main</a>
		</div>
	</body></html>`

	links, err := ParseListing(html, scraper.NewListingConfig())

	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "/news/chip-one", links[0].URL)
	assert.Equal(t, "Article From Segment One", links[0].Text)
}

// TestParseListing_SecondSelectorFallback verifies the fallback selector is
// used when the primary one matches nothing.
func TestParseListing_SecondSelectorFallback(t *testing.T) {
	html := `<html><body>
		<div class="segment-main">
			<a class="article-links" href="/news/chip-two">Article From Segment Main</a>
		</div>
	</body></html>`

	links, err := ParseListing(html, scraper.NewListingConfig())

	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "/news/chip-two", links[0].URL)
}

// TestParseListing_DegradedContainer verifies a page whose container is
// present but empty yields no links and no error.
func TestParseListing_DegradedContainer(t *testing.T) {
	html := `<html><body><div class="segment-one"><p>Nothing here</p></div></body></html>`

	links, err := ParseListing(html, scraper.NewListingConfig())

	require.NoError(t, err)
	assert.Empty(t, links)
}

// TestParseListing_NoContainer verifies a page with no known containers is
// reported as failed.
func TestParseListing_NoContainer(t *testing.T) {
	html := `<html><body><p>Unrelated page</p></body></html>`

	_, err := ParseListing(html, scraper.NewListingConfig())

	assert.ErrorIs(t, err, ErrNoContainer)
}

// TestFilterLinks verifies the short-anchor-text heuristic and origin
// normalization.
func TestFilterLinks(t *testing.T) {
	cfg := scraper.NewListingConfig()
	links := []Link{
		{URL: "/news/foo", Text: "New RISC-V Chip Announced"},
		{URL: "/tag/q1", Text: "Q1"},
		{URL: "https://www.eetimes.com/news/bar/", Text: "Another Real Article Headline"},
		{URL: "", Text: "Link With No Href At All"},
	}

	urls := FilterLinks(links, cfg)

	assert.Equal(t, []string{
		"https://www.eetimes.com/news/foo",
		"https://www.eetimes.com/news/bar/",
	}, urls)
}

// TestAbsoluteURL verifies relative-to-absolute normalization.
func TestAbsoluteURL(t *testing.T) {
	origin := "https://www.eetimes.com"

	assert.Equal(t, "https://www.eetimes.com/news/foo", AbsoluteURL("/news/foo", origin))
	assert.Equal(t, "https://elsewhere.example/x", AbsoluteURL("https://elsewhere.example/x", origin))
}
