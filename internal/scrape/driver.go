package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/verse-scraper/models"
	"github.com/dtnitsch/verse-scraper/pkg/db"
	"github.com/dtnitsch/verse-scraper/pkg/extractor"
	"github.com/dtnitsch/verse-scraper/pkg/normalize"
	"github.com/dtnitsch/verse-scraper/pkg/schema"
)

// PageFetcher retrieves and parses one HTML page.
type PageFetcher interface {
	GetHtml(ctx context.Context, url string) (*goquery.Document, error)
}

// Applier writes a batch of updates as one unit of work.
type Applier interface {
	Apply(ctx context.Context, updates []db.Update) (int64, error)
}

// Status is the outcome of one chapter page.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ChapterResult records what happened to one chapter page.
type ChapterResult struct {
	Job     string
	Chapter int
	URL     string
	Status  Status
	Updates int
	Rows    int64
	Error   error
}

// Driver runs jobs page by page over their chapter range.
// Schema is the default page schema; a job naming its own schema overrides it.
type Driver struct {
	Site    models.SiteConfig
	Schema  schema.Schema
	Fetcher PageFetcher
	Store   Applier
	Logger  *slog.Logger
}

// Run processes every chapter of job in order. A failed page is logged and skipped;
// only context cancellation stops the loop early.
func (d *Driver) Run(ctx context.Context, job models.JobConfig) []ChapterResult {
	logger := d.Logger.With("job", job.Name)

	pageSchema, err := d.schemaFor(job)
	if err != nil {
		logger.Error("job skipped", "error", err)
		return []ChapterResult{{Job: job.Name, Chapter: job.FirstChapter, Status: StatusFailed, Error: err}}
	}
	linker := &Linker{Site: d.Site, Schema: pageSchema, Fetcher: d.Fetcher, Store: d.Store, Logger: logger}

	var results []ChapterResult
	for chapter := job.FirstChapter; chapter <= job.LastChapter; chapter++ {
		if ctx.Err() != nil {
			logger.Warn("run interrupted", "chapter", chapter)
			break
		}

		res := d.runChapter(ctx, job, pageSchema, linker, chapter)
		switch res.Status {
		case StatusFailed:
			logger.Error("chapter failed", "chapter", chapter, "url", res.URL, "error", res.Error)
		case StatusSkipped:
			logger.Info("page not yet published", "chapter", chapter, "url", res.URL)
		default:
			logger.Info("chapter done", "chapter", chapter, "updates", res.Updates, "rows", res.Rows)
		}
		results = append(results, res)
	}
	return results
}

func (d *Driver) schemaFor(job models.JobConfig) (schema.Schema, error) {
	if job.Schema == "" {
		return d.Schema, nil
	}
	return schema.Lookup(job.Schema)
}

func (d *Driver) runChapter(ctx context.Context, job models.JobConfig, pageSchema schema.Schema, linker *Linker, chapter int) ChapterResult {
	res := ChapterResult{Job: job.Name, Chapter: chapter}
	fail := func(err error) ChapterResult {
		res.Status = StatusFailed
		res.Error = err
		return res
	}

	pageURL, err := d.Site.ChapterURL(job, chapter)
	if err != nil {
		return fail(err)
	}
	res.URL = pageURL

	doc, err := d.Fetcher.GetHtml(ctx, pageURL)
	if err != nil {
		return fail(err)
	}

	page := extractor.Extract(doc, pageURL, pageSchema, job.Mode)
	if !page.Published {
		res.Status = StatusSkipped
		return res
	}

	book := page.Book
	if job.Book != "" {
		book = job.Book
	}

	if job.Mode == models.ExtractModeLinked {
		return d.followLinks(ctx, linker, page, res)
	}

	updates := PageUpdates(page, book, job.Mode)
	rows, err := d.Store.Apply(ctx, updates)
	if err != nil {
		return fail(fmt.Errorf("failed to apply chapter %s: %w", page.Chapter, err))
	}
	res.Status = StatusApplied
	res.Updates = len(updates)
	res.Rows = rows
	return res
}

// followLinks resolves every theme link on the page. Link failures are collected but
// do not stop the remaining links.
func (d *Driver) followLinks(ctx context.Context, linker *Linker, page *models.ChapterPage, res ChapterResult) ChapterResult {
	var errs []error
	for _, item := range page.Items {
		if item.Kind != models.ItemThemeLink {
			continue
		}
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		lr, err := linker.Follow(ctx, item)
		res.Updates += lr.Applied
		res.Rows += lr.Rows
		if err != nil {
			errs = append(errs, err)
		}
	}

	res.Error = errors.Join(errs...)
	res.Status = StatusApplied
	if res.Error != nil && res.Updates == 0 {
		res.Status = StatusFailed
	}
	return res
}

// PageUpdates builds the store updates for a flat or tagged page.
// Flat pages set verse text; tagged pages set each verse's theme to the
// most recent theme marker above it ("" before the first one).
func PageUpdates(page *models.ChapterPage, book string, mode models.ExtractMode) []db.Update {
	var updates []db.Update
	theme := ""
	for _, item := range page.Items {
		switch item.Kind {
		case models.ItemTheme:
			theme = item.Text
		case models.ItemVerse:
			numeral, text := normalize.SplitAndClean(item.Text)
			where := db.VerseAt(book, page.Chapter, numeral)
			if mode.Tagged() {
				updates = append(updates, db.Update{Field: db.FieldTheme, Value: theme, Where: where})
			} else {
				updates = append(updates, db.Update{Field: db.FieldText, Value: text, Where: where})
			}
		}
	}
	return updates
}
