package history

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/skinhistory/internal/patch"
)

// Selectors and markers of the wiki page layout.
const (
	// headingSelector matches release heading links.
	headingSelector = "dl dt a"

	// artMarker is the substring that marks a visual change. It is matched
	// case-sensitively, as authored on the wiki.
	artMarker = " art"

	// linkSelector matches links whose text is a candidate skin name.
	linkSelector = "a[href]"
)

// Entry is one release heading with the skin names its art segments link to.
type Entry struct {
	// Release is the release named by the heading.
	Release patch.Version

	// Names are the non-blank link texts in document order, without duplicates.
	Names []string
}

// Parser extracts Entries from a rendered patch-history page.
type Parser struct {
	// floor is the minimum supported version. Headings at or below it
	// predate reliable data and are dropped.
	floor patch.Version

	logger *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMinVersion sets the minimum supported version.
func WithMinVersion(v patch.Version) ParserOption {
	return func(p *Parser) {
		p.floor = v
	}
}

// WithParserLogger sets the logger for rejected headings.
func WithParserLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser creates a Parser. Without WithMinVersion every well-formed
// heading above 0.0 is kept.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads an HTML document and returns its art-change entries in
// document order. Headings without any art segment, or whose art segments
// contain no links, produce no entry.
func (p *Parser) Parse(r io.Reader) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse patch history: %w", err)
	}

	entries := make([]Entry, 0)
	seen := make(map[*html.Node]bool)

	doc.Find(headingSelector).Each(func(_ int, link *goquery.Selection) {
		dl := link.Closest("dl")
		if dl.Length() == 0 || seen[dl.Get(0)] {
			return
		}
		// a heading list is judged once, by its first link's title
		seen[dl.Get(0)] = true

		release, ok := p.headingRelease(dl.Find("dt a").First())
		if !ok {
			return
		}

		names := artLinkNames(dl.Next())
		if len(names) == 0 {
			return
		}
		entries = append(entries, Entry{Release: release, Names: names})
	})

	return entries, nil
}

// headingRelease returns the release named by a heading link's title, or
// false when the heading is not a supported release heading.
func (p *Parser) headingRelease(link *goquery.Selection) (patch.Version, bool) {
	title, ok := link.Attr("title")
	if !ok {
		return patch.Version{}, false
	}

	text, ok := patch.TrimHeadingPrefix(title)
	if !ok {
		return patch.Version{}, false
	}

	release, err := patch.Parse(text)
	if err != nil {
		p.logger.Debug("rejected release heading", "title", title, "error", err)
		return patch.Version{}, false
	}

	if patch.Compare(release, p.floor) <= 0 {
		return patch.Version{}, false
	}

	return release, true
}

// artLinkNames collects link texts inside the descendants of block whose
// text contains the art marker.
func artLinkNames(block *goquery.Selection) []string {
	names := make([]string, 0)

	block.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), artMarker)
	}).Each(func(_ int, segment *goquery.Selection) {
		segment.Find(linkSelector).Each(func(_ int, a *goquery.Selection) {
			name := strings.TrimSpace(a.Text())
			if name == "" || slices.Contains(names, name) {
				return
			}
			names = append(names, name)
		})
	})

	return names
}
