package annotator

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"LinkedLens/internal/domain"
	"LinkedLens/internal/infrastructure/dom"
)

const feedHTML = `<html><body>
<div class="post" id="p0" style="margin: 4px;"><span class="text">Agree? Comment below!</span></div>
<div class="post" id="p1"><span class="text">How we shipped the migration</span></div>
<div class="post" id="p2"><span class="text">Unclassified</span></div>
</body></html>`

func setup(t *testing.T) (*dom.Page, []domain.Post) {
	t.Helper()

	page := dom.NewPage()
	if err := page.Load(strings.NewReader(feedHTML), ""); err != nil {
		t.Fatalf("load page: %v", err)
	}

	labels := []domain.Classification{
		domain.ClassificationEngagementBait,
		domain.ClassificationGenuineValue,
		domain.ClassificationNone,
	}
	var posts []domain.Post
	page.Do(func(s dom.Session) {
		s.Document().Find("div.post").Each(func(i int, el *goquery.Selection) {
			posts = append(posts, domain.Post{ID: i, Element: s.Track(el), Classification: labels[i]})
		})
	})
	return page, posts
}

func render(t *testing.T, page *dom.Page) *goquery.Document {
	t.Helper()
	out, err := page.HTML()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse rendered page: %v", err)
	}
	return doc
}

func TestLabelIsIdempotent(t *testing.T) {
	t.Parallel()

	page, posts := setup(t)
	a := New(page, nil)

	a.Label(posts)
	a.Label(posts)

	doc := render(t, page)
	for _, id := range []string{"#p0", "#p1"} {
		if n := doc.Find(id + " ." + LabelClass).Length(); n != 1 {
			t.Fatalf("%s: expected exactly 1 label, got %d", id, n)
		}
	}
	if n := doc.Find("#p2 ." + LabelClass).Length(); n != 0 {
		t.Fatalf("unclassified post should not be labeled, got %d labels", n)
	}

	first := doc.Find("#p0").Children().First()
	if !first.HasClass(LabelClass) {
		t.Fatal("label must be the first child of the post")
	}
	if got := strings.TrimSpace(first.Text()); got != "🎣 ENGAGEMENT BAIT" {
		t.Fatalf("unexpected bait label text %q", got)
	}
	if got := strings.TrimSpace(doc.Find("#p1 ." + LabelClass).Text()); got != "✓ GENUINE VALUE" {
		t.Fatalf("unexpected genuine label text %q", got)
	}
	if got, _ := doc.Find("#p0").Attr(ClassificationAttr); got != "engagement_bait" {
		t.Fatalf("expected classification attribute, got %q", got)
	}
}

func TestLabelReplacesChangedClassification(t *testing.T) {
	t.Parallel()

	page, posts := setup(t)
	a := New(page, nil)
	a.Label(posts)

	posts[0].Classification = domain.ClassificationGenuineValue
	a.Label(posts)

	doc := render(t, page)
	labels := doc.Find("#p0 ." + LabelClass)
	if labels.Length() != 1 || strings.TrimSpace(labels.Text()) != "✓ GENUINE VALUE" {
		t.Fatalf("expected a single genuine label, got %d %q", labels.Length(), labels.Text())
	}
}

func TestSetVisibilityOnlyHidesBait(t *testing.T) {
	t.Parallel()

	page, posts := setup(t)
	a := New(page, nil)
	a.SetVisibility(posts, true)

	doc := render(t, page)
	style, _ := doc.Find("#p0").Attr("style")
	if !strings.Contains(style, "display: none") || !strings.Contains(style, "margin: 4px") {
		t.Fatalf("bait post should be hidden keeping its style, got %q", style)
	}
	if _, ok := doc.Find("#p1").Attr("style"); ok {
		t.Fatal("genuine post must never be hidden")
	}

	a.SetVisibility(posts, false)
	doc = render(t, page)
	style, _ = doc.Find("#p0").Attr("style")
	if strings.Contains(style, "display") {
		t.Fatalf("bait post should be visible again, got %q", style)
	}
	if _, ok := doc.Find("#p0").Attr(HiddenAttr); ok {
		t.Fatal("hidden marker should be cleared")
	}
}

func TestReclassifiedPostIsShownAgain(t *testing.T) {
	t.Parallel()

	page, posts := setup(t)
	a := New(page, nil)
	a.Label(posts)
	a.SetVisibility(posts, true)

	posts[0].Classification = domain.ClassificationGenuineValue
	a.Label(posts)

	doc := render(t, page)
	if _, ok := doc.Find("#p0").Attr(HiddenAttr); ok {
		t.Fatal("post relabeled as genuine still carries the hidden marker")
	}
	style, _ := doc.Find("#p0").Attr("style")
	if strings.Contains(style, "display") || !strings.Contains(style, "margin: 4px") {
		t.Fatalf("post relabeled as genuine should be visible keeping its style, got %q", style)
	}

	a.SetVisibility(posts, true)
	doc = render(t, page)
	if n := doc.Find("[" + HiddenAttr + "]").Length(); n != 0 {
		t.Fatalf("no bait left, expected nothing hidden, got %d", n)
	}
}

func TestSetVisibilityShowsNonBaitCarryingMarker(t *testing.T) {
	t.Parallel()

	page, posts := setup(t)
	a := New(page, nil)
	a.SetVisibility(posts, true)

	posts[0].Classification = domain.ClassificationGenuineValue
	a.SetVisibility(posts, false)

	doc := render(t, page)
	if _, ok := doc.Find("#p0").Attr(HiddenAttr); ok {
		t.Fatal("hidden marker should be cleared from a non-bait post")
	}
	if style, _ := doc.Find("#p0").Attr("style"); strings.Contains(style, "none") {
		t.Fatalf("non-bait post still hidden: %q", style)
	}
}

func TestRestoreAll(t *testing.T) {
	t.Parallel()

	page, posts := setup(t)
	posts[1].Classification = domain.ClassificationEngagementBait
	a := New(page, nil)
	a.SetVisibility(posts, true)

	a.RestoreAll()

	doc := render(t, page)
	if n := doc.Find("[" + HiddenAttr + "]").Length(); n != 0 {
		t.Fatalf("expected no hidden posts, got %d", n)
	}
	for _, id := range []string{"#p0", "#p1"} {
		style, _ := doc.Find(id).Attr("style")
		if strings.Contains(style, "none") {
			t.Fatalf("%s still hidden: %q", id, style)
		}
	}
}

func TestStaleReferencesAreIgnored(t *testing.T) {
	t.Parallel()

	page, posts := setup(t)
	if err := page.Load(strings.NewReader(feedHTML), ""); err != nil {
		t.Fatalf("reload: %v", err)
	}

	a := New(page, nil)
	a.Label(posts)
	a.SetVisibility(posts, true)

	doc := render(t, page)
	if n := doc.Find("." + LabelClass).Length(); n != 0 {
		t.Fatalf("labels applied through stale references: %d", n)
	}
	if n := doc.Find("[" + HiddenAttr + "]").Length(); n != 0 {
		t.Fatalf("posts hidden through stale references: %d", n)
	}
}
