package models

// ItemKind is the structural role of a ContentItem within a chapter page.
type ItemKind string

const (
	ItemVerse     ItemKind = "verse"
	ItemTheme     ItemKind = "theme"
	ItemThemeLink ItemKind = "theme_link"
)

// ContentItem is one unit extracted from a chapter page, in document order.
type ContentItem struct {
	Kind ItemKind `json:"kind" yaml:"kind"`
	Tag  string   `json:"tag,omitempty" yaml:"tag,omitempty"` // e.g. "span", "div"
	Text string   `json:"text" yaml:"text"`
	Href string   `json:"href,omitempty" yaml:"href,omitempty"` // theme_link only
}

// ChapterPage is the extracted view of a single chapter page.
// A page without a header is not yet published and carries no items.
type ChapterPage struct {
	URL       string        `json:"url" yaml:"url"`
	Published bool          `json:"published" yaml:"published"`
	Chapter   string        `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	Book      string        `json:"book,omitempty" yaml:"book,omitempty"`
	Items     []ContentItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// CountKind returns the number of items of the given kind.
func (p *ChapterPage) CountKind(kind ItemKind) int {
	n := 0
	for _, item := range p.Items {
		if item.Kind == kind {
			n++
		}
	}
	return n
}
