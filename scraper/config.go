package scraper

// ListingConfig defines how article links are discovered on a paginated
// listing page. Link selectors are tried in priority order; the first
// selector that matches any anchors wins and the rest are ignored.
type ListingConfig struct {
	// PageURLTemplate is a printf template with a single %d verb for the
	// page index.
	PageURLTemplate string `json:"page_url_template"`
	// Origin is the scheme+host prefix used to absolutize relative hrefs.
	Origin string `json:"origin"`
	// LinkSelectors locate article anchors, in priority order.
	LinkSelectors []string `json:"link_selectors"`
	// ContainerSelectors are the containers that must be present before a
	// listing page is considered loaded. If none appears the page is
	// treated as failed.
	ContainerSelectors []string `json:"container_selectors"`
	// MinLinkTextLen is the minimum visible anchor text length. Anchors at
	// or below it are treated as navigation noise and dropped.
	MinLinkTextLen int `json:"min_link_text_len"`
}

// NewListingConfig creates a listing configuration with the EE Times
// semiconductor tag defaults.
func NewListingConfig() *ListingConfig {
	return &ListingConfig{
		PageURLTemplate: "https://www.eetimes.com/tag/semiconductors/page/%d/",
		Origin:          "https://www.eetimes.com",
		LinkSelectors: []string{
			".segment-one a.article-links",
			".segment-main a.article-links",
		},
		ContainerSelectors: []string{
			".segment-one",
			".segment-main",
		},
		MinLinkTextLen: 10,
	}
}

// ArticleConfig defines how metadata fields are extracted from individual
// article pages. Each field degrades independently: a missing selector
// falls back down its own chain without blocking the other fields.
type ArticleConfig struct {
	TitleSelector string `json:"title_selector"`
	// AuthorContainerSelector locates the header block holding the byline.
	// AuthorLinkSelector is tried inside it first; the container's raw
	// text is the fallback.
	AuthorContainerSelector string `json:"author_container_selector"`
	AuthorLinkSelector      string `json:"author_link_selector"`
	DateSelector            string `json:"date_selector"`
	// BodySelector locates the article body container; paragraph elements
	// inside it are concatenated in document order.
	BodySelector          string `json:"body_selector"`
	BodyParagraphSelector string `json:"body_paragraph_selector"`
}

// NewArticleConfig creates an article configuration with the EE Times
// defaults.
func NewArticleConfig() *ArticleConfig {
	return &ArticleConfig{
		TitleSelector:           "h1",
		AuthorContainerSelector: ".articleHeader-author",
		AuthorLinkSelector:      "a.author.url.fn",
		DateSelector:            "span.articleHeader-date",
		BodySelector:            ".articleBody",
		BodyParagraphSelector:   "p",
	}
}
