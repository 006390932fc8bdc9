package scrape

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/verse-scraper/models"
	"github.com/dtnitsch/verse-scraper/pkg/db"
	"github.com/dtnitsch/verse-scraper/pkg/extractor"
	"github.com/dtnitsch/verse-scraper/pkg/reference"
	"github.com/dtnitsch/verse-scraper/pkg/schema"
)

// LinkResult summarizes one followed theme link.
type LinkResult struct {
	Theme    string
	URL      string
	Refs     []models.Reference
	Rejected []string
	Applied  int
	Rows     int64
	Failed   int
}

// Linker resolves a theme link to the verse ranges listed on its target page.
type Linker struct {
	Site    models.SiteConfig
	Schema  schema.Schema
	Fetcher PageFetcher
	Store   Applier
	Logger  *slog.Logger
}

// Follow fetches the page behind link and applies link's theme to every parsed
// reference, one unit of work per reference. Labels that do not parse are dropped.
// Store failures are counted per reference; the returned error is set only when the
// page itself could not be read, or when every reference failed.
func (l *Linker) Follow(ctx context.Context, link models.ContentItem) (LinkResult, error) {
	res := LinkResult{Theme: link.Text}

	target, err := l.Site.Resolve(link.Href)
	if err != nil {
		return res, err
	}
	res.URL = target

	doc, err := l.Fetcher.GetHtml(ctx, target)
	if err != nil {
		return res, fmt.Errorf("failed to follow theme %q: %w", link.Text, err)
	}

	res.Refs, res.Rejected = reference.ParseAll(extractor.ReferenceLabels(doc, l.Schema))
	for _, label := range res.Rejected {
		l.Logger.Debug("reference dropped", "url", target, "label", label)
	}

	var lastErr error
	for _, ref := range res.Refs {
		rows, err := l.Store.Apply(ctx, []db.Update{{
			Field: db.FieldTheme,
			Value: link.Text,
			Where: db.VerseRange(ref),
		}})
		if err != nil {
			res.Failed++
			lastErr = err
			l.Logger.Error("reference update failed", "url", target, "reference", ref.String(), "error", err)
			continue
		}
		res.Applied++
		res.Rows += rows
		l.Logger.Debug("theme applied", "theme", link.Text, "reference", ref.String(), "rows", rows)
	}

	if res.Failed > 0 && res.Applied == 0 {
		return res, fmt.Errorf("failed to apply theme %q: %w", link.Text, lastErr)
	}
	return res, nil
}
