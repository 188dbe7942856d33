package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"LinkedLens/internal/domain"
	"LinkedLens/internal/infrastructure/dom"
	"LinkedLens/internal/ports"
)

const (
	// DefaultMaxPosts bounds the classification request size.
	DefaultMaxPosts = 15
	// DefaultMaxTextLength is a payload contract, not a display limit.
	DefaultMaxTextLength = 500
)

// Locators are structural selectors tried in order, most specific first.
type Locators struct {
	Posts   []string
	Text    []string
	Authors []string
}

// DefaultLocators matches the LinkedIn feed markup variants seen so far.
func DefaultLocators() Locators {
	return Locators{
		Posts: []string{
			`div[data-id^="urn:li:activity"]`,
			`div[data-id^="urn:li:aggregate"]`,
			`.feed-shared-update-v2`,
			`div.feed-shared-update-v2__description-wrapper`,
		},
		Text: []string{
			`.feed-shared-update-v2__description`,
			`.break-words`,
			`.feed-shared-text`,
			`.feed-shared-text__text-view`,
		},
		Authors: []string{
			`.update-components-actor__name`,
			`.feed-shared-actor__name`,
		},
	}
}

// FeedExtractor pulls post records out of the rendered feed page.
type FeedExtractor struct {
	page          *dom.Page
	locators      Locators
	maxPosts      int
	maxTextLength int
	logger        *slog.Logger
}

var _ ports.PostExtractor = (*FeedExtractor)(nil)

// ExtractorOption tweaks FeedExtractor limits.
type ExtractorOption func(*FeedExtractor)

// WithLimits lowers the post cap and text bound. Values are clamped to the
// defaults, which are ceilings; non-positive values keep them.
func WithLimits(maxPosts, maxTextLength int) ExtractorOption {
	return func(e *FeedExtractor) {
		if maxPosts > 0 {
			e.maxPosts = min(maxPosts, DefaultMaxPosts)
		}
		if maxTextLength > 0 {
			e.maxTextLength = min(maxTextLength, DefaultMaxTextLength)
		}
	}
}

// NewFeedExtractor wires the page; empty locator lists fall back to DefaultLocators.
func NewFeedExtractor(page *dom.Page, locators Locators, log *slog.Logger, opts ...ExtractorOption) *FeedExtractor {
	defaults := DefaultLocators()
	if len(locators.Posts) == 0 {
		locators.Posts = defaults.Posts
	}
	if len(locators.Text) == 0 {
		locators.Text = defaults.Text
	}
	if len(locators.Authors) == 0 {
		locators.Authors = defaults.Authors
	}

	e := &FeedExtractor{
		page:          page,
		locators:      locators,
		maxPosts:      DefaultMaxPosts,
		maxTextLength: DefaultMaxTextLength,
		logger:        log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns at most maxPosts posts in page order. An empty page yields an empty slice.
func (e *FeedExtractor) Extract() []domain.Post {
	posts := make([]domain.Post, 0)

	e.page.Do(func(s dom.Session) {
		candidates, locator := firstMatch(s.Document(), e.locators.Posts)
		if candidates == nil {
			e.warn("no posts found on page")
			return
		}
		e.debug("found post candidates", "count", candidates.Length(), "locator", locator)

		candidates.EachWithBreak(func(i int, el *goquery.Selection) bool {
			if i >= e.maxPosts {
				return false
			}

			text := firstText(el, e.locators.Text)
			if text == "" {
				return true
			}

			author := firstText(el, e.locators.Authors)
			if author == "" {
				author = domain.UnknownAuthor
			}

			posts = append(posts, domain.Post{
				ID:      i,
				Author:  author,
				Text:    truncateRunes(text, e.maxTextLength),
				Element: s.Track(el),
			})
			return true
		})
	})

	e.debug("extracted posts", "count", len(posts))
	return posts
}

// firstMatch never merges locators: overlapping matches would duplicate posts.
func firstMatch(doc *goquery.Document, locators []string) (*goquery.Selection, string) {
	for _, locator := range locators {
		sel := doc.Find(locator)
		if sel.Length() > 0 {
			return sel, locator
		}
	}
	return nil, ""
}

func firstText(el *goquery.Selection, locators []string) string {
	for _, locator := range locators {
		node := el.Find(locator).First()
		if node.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return text
		}
	}
	return ""
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func (e *FeedExtractor) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *FeedExtractor) warn(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
