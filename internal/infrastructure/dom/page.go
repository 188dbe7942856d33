package dom

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"LinkedLens/internal/domain"
)

// Page is the rendered feed document shared by the extractor and the annotator.
// Every Load is a navigation: element references issued before it stop resolving.
type Page struct {
	mu         sync.Mutex
	doc        *goquery.Document
	generation uint64
	nodes      []*html.Node
}

// NewPage returns an empty page; call Load before use.
func NewPage() *Page {
	doc := goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	return &Page{doc: doc}
}

// Load replaces the document with the HTML read from r.
// contentType may be empty; it is only used as a charset hint.
func (p *Page) Load(r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return fmt.Errorf("decode page: %w", err)
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = doc
	p.generation++
	p.nodes = nil
	return nil
}

// Generation identifies the currently loaded document.
func (p *Page) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Do runs fn with exclusive access to the document.
func (p *Page) Do(fn func(s Session)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(Session{page: p})
}

// HTML renders the current document, annotations included.
func (p *Page) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out, err := p.doc.Html()
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return out, nil
}

// Session is a locked view of a Page. It must not escape the Do callback.
type Session struct {
	page *Page
}

// Document returns the live document.
func (s Session) Document() *goquery.Document {
	return s.page.doc
}

// Track issues a reference to the first node of sel.
func (s Session) Track(sel *goquery.Selection) domain.ElementRef {
	if sel == nil || sel.Length() == 0 || s.page.generation == 0 {
		return domain.ElementRef{}
	}
	node := sel.Get(0)
	for i, n := range s.page.nodes {
		if n == node {
			return domain.ElementRef{Document: s.page.generation, Node: i}
		}
	}
	s.page.nodes = append(s.page.nodes, node)
	return domain.ElementRef{Document: s.page.generation, Node: len(s.page.nodes) - 1}
}

// Resolve looks up a reference. Stale references, including nodes that were
// removed from the tree, resolve to false.
func (s Session) Resolve(ref domain.ElementRef) (*goquery.Selection, bool) {
	if ref.IsZero() || ref.Document != s.page.generation {
		return nil, false
	}
	if ref.Node < 0 || ref.Node >= len(s.page.nodes) {
		return nil, false
	}
	node := s.page.nodes[ref.Node]
	if !attached(node) {
		return nil, false
	}
	return s.page.doc.FindNodes(node), true
}

func attached(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.DocumentNode {
			return true
		}
	}
	return false
}
