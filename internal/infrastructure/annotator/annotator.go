// Package annotator renders classification results onto the feed page.
package annotator

import (
	"html"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"LinkedLens/internal/domain"
	"LinkedLens/internal/infrastructure/dom"
	"LinkedLens/internal/ports"
)

const (
	// LabelClass marks label nodes inserted by Label.
	LabelClass = "linkedlens-label"
	// ClassificationAttr exposes the assigned label on the post element.
	ClassificationAttr = "data-linkedlens-classification"
	// HiddenAttr marks elements hidden by SetVisibility.
	HiddenAttr = "data-linkedlens-hidden"
)

const labelBaseStyle = `display: inline-block; padding: 4px 8px; margin: 8px 0; border-radius: 4px; ` +
	`font-size: 12px; font-weight: bold; font-family: -apple-system, system-ui, BlinkMacSystemFont, "Segoe UI", Roboto;`

type labelStyle struct {
	text       string
	background string
	color      string
	border     string
}

var labelStyles = map[domain.Classification]labelStyle{
	domain.ClassificationEngagementBait: {"🎣 ENGAGEMENT BAIT", "#fee2e2", "#991b1b", "#fca5a5"},
	domain.ClassificationGenuineValue:   {"✓ GENUINE VALUE", "#dcfce7", "#166534", "#86efac"},
}

// Annotator implements ports.Annotator against a dom.Page.
// References that no longer resolve are skipped silently.
type Annotator struct {
	page   *dom.Page
	logger *slog.Logger
}

var _ ports.Annotator = (*Annotator)(nil)

// New builds an annotator over page.
func New(page *dom.Page, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{page: page, logger: logger}
}

// Label replaces any earlier label on each classified post with exactly one new label.
// A post hidden as bait in an earlier run is shown again once it is no longer bait.
func (a *Annotator) Label(posts []domain.Post) {
	labeled, stale := 0, 0

	a.page.Do(func(s dom.Session) {
		for _, post := range posts {
			style, ok := labelStyles[post.Classification]
			if !ok {
				continue
			}
			el, ok := s.Resolve(post.Element)
			if !ok {
				stale++
				continue
			}

			el.Find("." + LabelClass).Remove()
			el.PrependHtml(renderLabel(style))
			el.SetAttr(ClassificationAttr, string(post.Classification))
			if post.Classification != domain.ClassificationEngagementBait && isHidden(el) {
				show(el)
			}
			labeled++
		}
	})

	a.logger.Debug("labels rendered", "labeled", labeled, "stale", stale)
}

// SetVisibility hides or shows engagement-bait posts. Other posts are never
// hidden; any that still carry the hidden marker are shown.
func (a *Annotator) SetVisibility(posts []domain.Post, hidden bool) {
	changed := 0

	a.page.Do(func(s dom.Session) {
		for _, post := range posts {
			el, ok := s.Resolve(post.Element)
			if !ok {
				continue
			}
			if post.Classification != domain.ClassificationEngagementBait {
				if isHidden(el) {
					show(el)
					changed++
				}
				continue
			}
			if hidden {
				hide(el)
			} else {
				show(el)
			}
			changed++
		}
	})

	a.logger.Debug("visibility applied", "hidden", hidden, "posts", changed)
}

// RestoreAll makes every element hidden by SetVisibility visible again.
func (a *Annotator) RestoreAll() {
	restored := 0

	a.page.Do(func(s dom.Session) {
		s.Document().Find("[" + HiddenAttr + "]").Each(func(_ int, el *goquery.Selection) {
			show(el)
			restored++
		})
	})

	a.logger.Debug("visibility restored", "posts", restored)
}

func renderLabel(s labelStyle) string {
	style := labelBaseStyle + " background-color: " + s.background + "; color: " + s.color + "; border: 1px solid " + s.border + ";"
	return `<div class="` + LabelClass + `" style="` + html.EscapeString(style) + `">` + html.EscapeString(s.text) + `</div>`
}

func hide(el *goquery.Selection) {
	style := withoutDisplay(el.AttrOr("style", ""))
	el.SetAttr("style", strings.TrimSpace(style+" display: none;"))
	el.SetAttr(HiddenAttr, "true")
}

func isHidden(el *goquery.Selection) bool {
	_, ok := el.Attr(HiddenAttr)
	return ok
}

func show(el *goquery.Selection) {
	style := withoutDisplay(el.AttrOr("style", ""))
	if style == "" {
		el.RemoveAttr("style")
	} else {
		el.SetAttr("style", style)
	}
	el.RemoveAttr(HiddenAttr)
}

// withoutDisplay drops display declarations from an inline style.
func withoutDisplay(style string) string {
	var kept []string
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		prop, _, _ := strings.Cut(decl, ":")
		if strings.EqualFold(strings.TrimSpace(prop), "display") {
			continue
		}
		kept = append(kept, decl+";")
	}
	return strings.Join(kept, " ")
}
