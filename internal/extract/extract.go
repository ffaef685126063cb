// Package extract derives structured article fields from raw news-page HTML.
//
// Every field is resolved by an ordered list of selector strategies, trying
// semantic markup first (structured headings, meta tags) and falling back to
// generic elements. The first candidate passing the field's validity check
// wins.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/newsproof/newsproof/internal/sanitize"
)

// Article is the structured result of a successful extraction. Body holds the
// sanitized text; WordCount is computed over it.
type Article struct {
	Title       string
	Body        string
	Author      string
	PublishDate string // normalized to "2006-01-02 15:04:05", empty when unknown
	Description string
	SourceURL   string
	WordCount   int
	ExtractedAt time.Time
}

// ErrInsufficientContent is returned when the page yields less than
// minContentLen characters of sanitized body text.
var ErrInsufficientContent = errors.New("insufficient content extracted from URL")

const (
	// minContentLen is the minimum sanitized body length for a usable article.
	minContentLen = 50
	// bodyTargetLen stops the container scan once enough text accumulated.
	bodyTargetLen = 200
	// minParagraphLen filters navigation crumbs out of the paragraph fallback.
	minParagraphLen = 50

	minTitleLen       = 5
	minAuthorLen      = 3
	maxAuthorLen      = 99
	minDescriptionLen = 20

	// placeholderTitle is used when no strategy yields a title.
	placeholderTitle = "Article from URL"

	dateLayout = "2006-01-02 15:04:05"
)

// strategy pairs a CSS selector with the attribute carrying the candidate
// value. An empty attr means the element's text content.
type strategy struct {
	selector string
	attr     string
}

var titleStrategies = []strategy{
	{selector: `h1[class*="title"]`},
	{selector: `h1[class*="headline"]`},
	{selector: `h1`},
	{selector: `title`},
	{selector: `meta[property="og:title"]`, attr: "content"},
	{selector: `meta[name="twitter:title"]`, attr: "content"},
}

var bodyStrategies = []string{
	`article`,
	`div[class*="content"]`,
	`div[class*="article"]`,
	`div[class*="post"]`,
	`div[id*="content"]`,
	`div[id*="article"]`,
	`main`,
	`section[class*="content"]`,
}

var authorStrategies = []strategy{
	{selector: `meta[name="author"]`, attr: "content"},
	{selector: `meta[property="article:author"]`, attr: "content"},
	{selector: `span[class*="author"]`},
	{selector: `div[class*="author"]`},
	{selector: `a[class*="author"]`},
}

var dateStrategies = []strategy{
	{selector: `meta[property="article:published_time"]`, attr: "content"},
	{selector: `meta[name="publish_date"]`, attr: "content"},
	{selector: `time[datetime]`, attr: "datetime"},
	{selector: `span[class*="date"]`},
	{selector: `div[class*="date"]`},
}

var descriptionStrategies = []strategy{
	{selector: `meta[name="description"]`, attr: "content"},
	{selector: `meta[property="og:description"]`, attr: "content"},
	{selector: `meta[name="twitter:description"]`, attr: "content"},
}

// Extract parses page HTML and assembles an Article. It fails with
// ErrInsufficientContent when the sanitized body text is shorter than the
// minimum content threshold.
func Extract(pageHTML []byte, sourceURL string) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	body := sanitize.Clean(extractBody(doc))
	if len(body) < minContentLen {
		return nil, ErrInsufficientContent
	}

	title := firstCandidate(doc, titleStrategies, func(s string) bool {
		return len(s) > minTitleLen
	})
	if title == "" {
		title = placeholderTitle
	}

	return &Article{
		Title:       title,
		Body:        body,
		Author:      extractAuthor(doc),
		PublishDate: extractPublishDate(doc),
		Description: extractDescription(doc),
		SourceURL:   sourceURL,
		WordCount:   sanitize.WordCount(body),
		ExtractedAt: time.Now(),
	}, nil
}

// firstCandidate walks strategies in order and returns the first node value
// that passes valid. Only the first matching node per selector is considered;
// an invalid candidate moves the scan to the next strategy.
func firstCandidate(doc *goquery.Document, strategies []strategy, valid func(string) bool) string {
	for _, st := range strategies {
		sel := doc.Find(st.selector).First()
		if sel.Length() == 0 {
			continue
		}
		var candidate string
		if st.attr != "" {
			candidate, _ = sel.Attr(st.attr)
		} else {
			candidate = sel.Text()
		}
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && valid(candidate) {
			return candidate
		}
	}
	return ""
}

// extractBody scans semantic containers in priority order, keeping the
// longest text seen so far and stopping once it exceeds bodyTargetLen. When
// no container yields enough, it falls back to concatenating substantial
// paragraphs.
func extractBody(doc *goquery.Document) string {
	var content string

	for _, selector := range bodyStrategies {
		nodes := doc.Find(selector)
		if nodes.Length() == 0 {
			continue
		}
		nodes.Each(func(_ int, node *goquery.Selection) {
			text := nodeText(node)
			if len(text) > len(content) {
				content = text
			}
		})
		if len(content) > bodyTargetLen {
			break
		}
	}

	if len(content) < bodyTargetLen {
		var paragraphs []string
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := strings.TrimSpace(p.Text())
			if len(text) > minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			content = strings.Join(paragraphs, "\n\n")
		}
	}

	return content
}

// nodeText returns the node's text with embedded script and style subtrees
// removed.
func nodeText(node *goquery.Selection) string {
	node.Find("script, style").Remove()
	return strings.TrimSpace(node.Text())
}

func extractAuthor(doc *goquery.Document) string {
	return firstCandidate(doc, authorStrategies, func(s string) bool {
		return len(s) >= minAuthorLen && len(s) <= maxAuthorLen
	})
}

// extractPublishDate returns the first candidate string that parses as a
// date, normalized to dateLayout.
func extractPublishDate(doc *goquery.Document) string {
	for _, st := range dateStrategies {
		sel := doc.Find(st.selector).First()
		if sel.Length() == 0 {
			continue
		}
		var raw string
		if st.attr != "" {
			raw, _ = sel.Attr(st.attr)
		} else {
			raw = sel.Text()
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if ts, err := dateparse.ParseAny(raw); err == nil {
			return ts.Format(dateLayout)
		}
	}
	return ""
}

func extractDescription(doc *goquery.Document) string {
	return firstCandidate(doc, descriptionStrategies, func(s string) bool {
		return len(s) > minDescriptionLen
	})
}
