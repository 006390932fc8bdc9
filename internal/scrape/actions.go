package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dtnitsch/verse-scraper/models"
	"github.com/dtnitsch/verse-scraper/pkg/caching"
	"github.com/dtnitsch/verse-scraper/pkg/db"
	"github.com/dtnitsch/verse-scraper/pkg/fetcher"
	"github.com/dtnitsch/verse-scraper/pkg/normalize"
	"github.com/dtnitsch/verse-scraper/pkg/reference"
	"github.com/dtnitsch/verse-scraper/pkg/schema"
	"github.com/dtnitsch/verse-scraper/pkg/session"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
)

// Commands returns the verse-scraper subcommands.
func Commands() []*cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML file overriding the built-in site, store and job settings",
	}

	return []*cli.Command{
		{
			Name:   "run",
			Usage:  "Scrape chapters and update the verse table",
			Action: RunAction,
			Flags: []cli.Flag{
				configFlag,
				&cli.StringSliceFlag{Name: "job", Aliases: []string{"j"}, Usage: "job to run (repeatable, default all)"},
				&cli.StringFlag{Name: "dsn", Usage: "store connection string", EnvVars: []string{"VERSE_SCRAPER_DSN"}},
				&cli.StringFlag{Name: "driver", Usage: "store driver (postgres or sqlite)"},
				&cli.DurationFlag{Name: "delay", Usage: "minimum spacing between requests"},
				&cli.BoolFlag{Name: "dry-run", Usage: "count matching rows without writing"},
				&cli.StringFlag{Name: "session-dir", Usage: "write a run record under this directory"},
				&cli.StringFlag{Name: "cache-dir", Usage: "reuse fetched pages from this directory"},
				&cli.DurationFlag{Name: "cache-ttl", Usage: "maximum age of cached pages (0 keeps them forever)"},
				&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
				&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug detail, including dropped references"},
			},
		},
		{
			Name:   "jobs",
			Usage:  "List configured jobs",
			Action: JobsAction,
			Flags: []cli.Flag{
				configFlag,
				&cli.StringFlag{Name: "session-dir", Usage: "show each job's last run from this directory"},
			},
		},
		{
			Name:      "parse-ref",
			Usage:     "Parse scripture reference labels",
			ArgsUsage: "LABEL...",
			Action:    ParseRefAction,
		},
		{
			Name:      "normalize",
			Usage:     "Split verse labels into numeral and text",
			ArgsUsage: "LABEL...",
			Action:    NormalizeAction,
		},
	}
}

func newLogger(w io.Writer, c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// loadConfig reads --config and applies the store and pacing flag overrides.
func loadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("dsn") {
		cfg.Store.DSN = c.String("dsn")
	}
	if c.IsSet("driver") {
		cfg.Store.Driver = c.String("driver")
	}
	if c.IsSet("delay") {
		cfg.Site.Delay = c.Duration("delay")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func selectJobs(cfg *models.Config, names []string) ([]models.JobConfig, error) {
	if len(names) == 0 {
		return cfg.Jobs, nil
	}
	jobs := make([]models.JobConfig, 0, len(names))
	for _, name := range names {
		job, ok := cfg.Job(name)
		if !ok {
			return nil, fmt.Errorf("unknown job %q", name)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// matchOnly stands in for the store on dry runs.
type matchOnly struct {
	store *db.DB
}

func (m matchOnly) Apply(ctx context.Context, updates []db.Update) (int64, error) {
	return m.store.Match(ctx, updates)
}

func RunAction(c *cli.Context) error {
	out := c.App.Writer
	runID := uuid.New()
	logger := newLogger(out, c).With("run_id", runID.String())

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
	}
	jobs, err := selectJobs(cfg, c.StringSlice("job"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	pageSchema, err := schema.Lookup(cfg.Site.Schema)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	for _, job := range jobs {
		if _, err := schema.Lookup(cfg.Site.SchemaFor(job)); err != nil {
			return cli.Exit(fmt.Sprintf("job %s: %v", job.Name, err), 1)
		}
	}

	ctx := c.Context
	database, err := db.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Store.Driver, "error", err)
		return cli.Exit(fmt.Sprintf("failed to open database: %v", err), 2)
	}
	defer database.Close()

	var store Applier = database
	if c.Bool("dry-run") {
		store = matchOnly{store: database}
	}

	httpFetcher := fetcher.NewFetcher(fetcher.Options{
		Delay:     cfg.Site.Delay,
		Timeout:   cfg.Site.Timeout,
		UserAgent: cfg.Site.UserAgent,
	})
	var pages PageFetcher = httpFetcher
	if dir := c.String("cache-dir"); dir != "" {
		cache, err := caching.NewCache(dir, c.Duration("cache-ttl"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		pages = &caching.Fetcher{Source: httpFetcher, Cache: cache}
	}

	driver := &Driver{
		Site:    cfg.Site,
		Schema:  pageSchema,
		Fetcher: pages,
		Store:   store,
		Logger:  logger,
	}

	sess := session.New(runID, time.Now())
	sess.DryRun = c.Bool("dry-run")

	var all []ChapterResult
	for _, job := range jobs {
		logger.Info("job started", "job", job.Name, "mode", job.Mode,
			"first_chapter", job.FirstChapter, "last_chapter", job.LastChapter)
		results := driver.Run(ctx, job)
		all = append(all, results...)
		sess.Jobs = append(sess.Jobs, JobRecord(job.Name, string(job.Mode), results))
		if ctx.Err() != nil {
			break
		}
	}
	sess.Finished = time.Now()

	PrintSummary(out, all)

	if dir := c.String("session-dir"); dir != "" {
		if err := session.Write(dir, sess); err != nil {
			logger.Error("failed to write session", "dir", dir, "error", err)
		} else {
			logger.Info("session written", "session_id", sess.ID, "path", session.GetSessionPath(dir, sess.ID))
		}
	}

	fmt.Fprintln(out, "Scraping finished!")
	return nil
}

func JobsAction(c *cli.Context) error {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
	}

	var index *session.SessionIndex
	if dir := c.String("session-dir"); dir != "" {
		if index, err = session.LoadIndex(dir); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	header := table.Row{"Job", "Mode", "Schema", "Chapters", "Book", "First URL"}
	if index != nil {
		header = append(header, "Last run")
	}
	t.AppendHeader(header)

	for _, job := range cfg.Jobs {
		first, err := cfg.Site.ChapterURL(job, job.FirstChapter)
		if err != nil {
			first = err.Error()
		}
		book := job.Book
		if book == "" {
			book = "(from page)"
		}
		row := table.Row{job.Name, job.Mode, cfg.Site.SchemaFor(job),
			fmt.Sprintf("%d-%d", job.FirstChapter, job.LastChapter), book, first}
		if index != nil {
			last := "never"
			if info, ok := index.LastRun(job.Name); ok {
				last = info.SessionID
			}
			row = append(row, last)
		}
		t.AppendRow(row)
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

func ParseRefAction(c *cli.Context) error {
	labels := c.Args().Slice()
	if len(labels) == 0 {
		return cli.Exit("parse-ref needs at least one LABEL", 1)
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"Label", "Book", "Chapter", "From", "To"})
	for _, label := range labels {
		ref, ok := reference.Parse(label)
		if !ok {
			t.AppendRow(table.Row{label, "(no reference)", "", "", ""})
			continue
		}
		t.AppendRow(table.Row{label, ref.Book, ref.Chapter, ref.From, ref.To})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

func NormalizeAction(c *cli.Context) error {
	labels := c.Args().Slice()
	if len(labels) == 0 {
		return cli.Exit("normalize needs at least one LABEL", 1)
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"Label", "Numeral", "Text"})
	for _, label := range labels {
		numeral, text := normalize.SplitAndClean(label)
		t.AppendRow(table.Row{label, numeral, text})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
