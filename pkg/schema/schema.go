// Package schema describes where verse data lives in a site's markup.
// Each site version is one Schema; jobs pick one by name.
package schema

import (
	"fmt"
	"sort"

	"github.com/PuerkitoBio/goquery"
)

// Schema locates the structural elements of chapter and theme pages.
type Schema interface {
	Name() string
	// Header returns the chapter heading; ok is false when the page has none.
	Header(doc *goquery.Document) (sel *goquery.Selection, ok bool)
	// VerseLines returns every verse line node under the verse container.
	VerseLines(doc *goquery.Document) *goquery.Selection
	// Container returns the verse container whose direct children are walked in tagged mode.
	Container(doc *goquery.Document) *goquery.Selection
	// IsGroup reports whether a direct child of the container is a theme grouping node.
	IsGroup(child *goquery.Selection) bool
	// ThemeHeading returns the inline theme heading inside a grouping node.
	ThemeHeading(group *goquery.Selection) (sel *goquery.Selection, ok bool)
	// ThemeLink returns the hyperlink to a theme page inside a grouping node.
	ThemeLink(group *goquery.Selection) (sel *goquery.Selection, ok bool)
	// ReferenceHeadings returns the scripture reference headings on a theme page.
	ReferenceHeadings(doc *goquery.Document) *goquery.Selection
}

// Selectors is a Schema backed by fixed CSS selectors.
type Selectors struct {
	SchemaName       string
	HeaderSel        string
	VerseLineSel     string
	ContainerSel     string
	GroupTag         string
	ThemeHeadingSel  string
	ThemeLinkSel     string
	ReferenceHeading string
}

// SasoebaV1 is the markup of sasoeba.ge chapter and theme pages.
var SasoebaV1 = &Selectors{
	SchemaName:       "sasoeba-v1",
	HeaderSel:        "h1.rt-Heading.rt-r-size-5.rt-r-ta-center",
	VerseLineSel:     "div.rt-Box > div.flex.flex-col.gap-rx-2 > span.rt-Text",
	ContainerSel:     "div.rt-Box > div.flex.flex-col.gap-rx-2",
	GroupTag:         "div",
	ThemeHeadingSel:  "h3",
	ThemeLinkSel:     "a",
	ReferenceHeading: "div.mb-rx-4 > a > h3.rt-Heading.rt-r-size-3.inline",
}

var registry = map[string]Schema{
	SasoebaV1.Name(): SasoebaV1,
}

// Lookup returns the registered schema with the given name.
func Lookup(name string) (Schema, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown page schema %q (known: %v)", name, Names())
	}
	return s, nil
}

// Names lists the registered schema names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Selectors) Name() string { return s.SchemaName }

func (s *Selectors) Header(doc *goquery.Document) (*goquery.Selection, bool) {
	return first(doc.Find(s.HeaderSel))
}

func (s *Selectors) VerseLines(doc *goquery.Document) *goquery.Selection {
	return doc.Find(s.VerseLineSel)
}

func (s *Selectors) Container(doc *goquery.Document) *goquery.Selection {
	return doc.Find(s.ContainerSel).First()
}

func (s *Selectors) IsGroup(child *goquery.Selection) bool {
	return goquery.NodeName(child) == s.GroupTag
}

func (s *Selectors) ThemeHeading(group *goquery.Selection) (*goquery.Selection, bool) {
	return first(group.Find(s.ThemeHeadingSel))
}

func (s *Selectors) ThemeLink(group *goquery.Selection) (*goquery.Selection, bool) {
	return first(group.Find(s.ThemeLinkSel))
}

func (s *Selectors) ReferenceHeadings(doc *goquery.Document) *goquery.Selection {
	return doc.Find(s.ReferenceHeading)
}

func first(sel *goquery.Selection) (*goquery.Selection, bool) {
	sel = sel.First()
	return sel, sel.Length() > 0
}
