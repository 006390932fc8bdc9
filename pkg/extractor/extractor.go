// Package extractor turns a parsed chapter page into ordered content items.
package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/verse-scraper/models"
	"github.com/dtnitsch/verse-scraper/pkg/normalize"
	"github.com/dtnitsch/verse-scraper/pkg/schema"
	"golang.org/x/net/html"
)

// Extract reads the chapter header and content items from doc.
// A page without a header is returned unpublished with no items.
func Extract(doc *goquery.Document, pageURL string, s schema.Schema, mode models.ExtractMode) *models.ChapterPage {
	page := &models.ChapterPage{URL: pageURL}

	header, ok := s.Header(doc)
	if !ok {
		return page
	}
	page.Published = true
	page.Chapter, page.Book = normalize.SplitAndClean(strings.TrimSpace(header.Text()))

	if mode.Tagged() {
		page.Items = taggedItems(s.Container(doc), s, mode == models.ExtractModeLinked)
	} else {
		page.Items = flatItems(s.VerseLines(doc))
	}
	return page
}

func flatItems(lines *goquery.Selection) []models.ContentItem {
	items := make([]models.ContentItem, 0, lines.Length())
	lines.Each(func(_ int, line *goquery.Selection) {
		items = append(items, models.ContentItem{
			Kind: models.ItemVerse,
			Tag:  goquery.NodeName(line),
			Text: strings.TrimSpace(line.Text()),
		})
	})
	return items
}

// taggedItems walks only the direct children of the container so theme markers and
// verse lines keep their document order.
func taggedItems(container *goquery.Selection, s schema.Schema, followLinks bool) []models.ContentItem {
	var items []models.ContentItem
	container.Children().Each(func(_ int, child *goquery.Selection) {
		tag := goquery.NodeName(child)
		if !s.IsGroup(child) {
			items = append(items, models.ContentItem{Kind: models.ItemVerse, Tag: tag, Text: StrippedText(child)})
			return
		}

		if followLinks {
			if link, ok := s.ThemeLink(child); ok {
				items = append(items, models.ContentItem{
					Kind: models.ItemThemeLink,
					Tag:  tag,
					Text: normalize.CollapseSpaces(StrippedText(link)),
					Href: link.AttrOr("href", ""),
				})
				return
			}
		}

		// a group without a heading falls back to its own text
		text := StrippedText(child)
		if heading, ok := s.ThemeHeading(child); ok {
			text = normalize.CollapseSpaces(StrippedText(heading))
		}
		items = append(items, models.ContentItem{Kind: models.ItemTheme, Tag: tag, Text: text})
	})
	return items
}

// ReferenceLabels returns the stripped text of every reference heading on a theme page.
func ReferenceLabels(doc *goquery.Document, s schema.Schema) []string {
	var labels []string
	s.ReferenceHeadings(doc).Each(func(_ int, h *goquery.Selection) {
		labels = append(labels, StrippedText(h))
	})
	return labels
}

// StrippedText trims every descendant text node and concatenates the non-empty
// pieces without a separator.
func StrippedText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeStripped(n, &b)
	}
	return b.String()
}

func writeStripped(node *html.Node, b *strings.Builder) {
	if node.Type == html.TextNode {
		b.WriteString(strings.TrimSpace(node.Data))
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeStripped(child, b)
	}
}
