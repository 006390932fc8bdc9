// Package models defines data structures for configuration and extracted content.
package models

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration for a scrape run.
// Defaults come from DefaultConfig; a YAML file and CLI flags override them.
type Config struct {
	Site  SiteConfig  `yaml:"site"`
	Store StoreConfig `yaml:"store"`
	Jobs  []JobConfig `yaml:"jobs"`
}

// SiteConfig describes the source site and how politely to talk to it.
type SiteConfig struct {
	Origin    string        `yaml:"origin"`
	Locale    string        `yaml:"locale"`
	Corpus    string        `yaml:"corpus"`
	Schema    string        `yaml:"schema"`
	Delay     time.Duration `yaml:"delay"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// StoreConfig holds the verse table connection and naming.
type StoreConfig struct {
	Driver  string  `yaml:"driver"` // postgres or sqlite
	DSN     string  `yaml:"dsn"`
	Table   string  `yaml:"table"`
	Columns Columns `yaml:"columns"`
}

// Columns names the verse table columns the scraper reads and writes.
type Columns struct {
	Book    string `yaml:"book"`
	Chapter string `yaml:"chapter"`
	Verse   string `yaml:"verse"`
	Text    string `yaml:"text"`
	Theme   string `yaml:"theme"`
}

// JobConfig is one batch job over a fixed chapter range of a single book.
type JobConfig struct {
	Name        string      `yaml:"name"`
	Mode        ExtractMode `yaml:"mode"`
	Translation string      `yaml:"translation"`
	BookSlug    string      `yaml:"book_slug"`
	// Book overrides the book label read from the page header when set.
	Book string `yaml:"book,omitempty"`
	// Schema overrides site.schema for this job's pages.
	Schema string `yaml:"schema,omitempty"`

	FirstChapter int `yaml:"first_chapter"`
	LastChapter  int `yaml:"last_chapter"`
}

// DefaultConfig returns the built-in site, store and job definitions.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Origin:    "https://sasoeba.ge",
			Locale:    "ka",
			Corpus:    "biblia",
			Schema:    "sasoeba-v1",
			Delay:     time.Second,
			Timeout:   30 * time.Second,
			UserAgent: "verse-scraper/1.0",
		},
		Store: StoreConfig{
			Driver: "postgres",
			DSN:    "postgres://postgres@localhost:5432/postgres?sslmode=disable",
			Table:  "მუხლები",
			Columns: Columns{
				Book:    "წიგნი",
				Chapter: "თავი",
				Verse:   "მუხლი",
				Text:    "ძველი_ტექსტი",
				Theme:   "თემა",
			},
		},
		Jobs: []JobConfig{
			{
				Name:         "john-text",
				Mode:         ExtractModeFlat,
				Translation:  "mtskheturi-g-mtatsmindelis",
				BookSlug:     "sakharebai-iovanesi",
				Book:         "იოანეს სახარება",
				FirstChapter: 1,
				LastChapter:  21,
			},
			{
				Name:         "mark-themes",
				Mode:         ExtractModeTagged,
				Translation:  "tanamedrove-kartul-enaze-orthodoxy",
				BookSlug:     "markozis-sakhareba",
				FirstChapter: 1,
				LastChapter:  16,
			},
			{
				Name:         "luke-theme-links",
				Mode:         ExtractModeLinked,
				Translation:  "tanamedrove-kartul-enaze-orthodoxy",
				BookSlug:     "lukas-sakhareba",
				FirstChapter: 1,
				LastChapter:  24,
			},
		},
	}
}

// LoadConfig overlays the YAML file at path onto DefaultConfig.
// An empty path returns the defaults. A jobs list in the file replaces the default jobs.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the scraper cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Site.Origin == "" {
		errs = append(errs, errors.New("site.origin is required"))
	} else if u, err := url.Parse(c.Site.Origin); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("site.origin %q is not an absolute URL", c.Site.Origin))
	}
	if c.Site.Delay < 0 {
		errs = append(errs, errors.New("site.delay must not be negative"))
	}
	if c.Store.Table == "" {
		errs = append(errs, errors.New("store.table is required"))
	}

	seen := make(map[string]bool, len(c.Jobs))
	for i, job := range c.Jobs {
		if job.Name == "" {
			errs = append(errs, fmt.Errorf("jobs[%d]: name is required", i))
		} else if seen[job.Name] {
			errs = append(errs, fmt.Errorf("jobs[%d]: duplicate job name %q", i, job.Name))
		}
		seen[job.Name] = true

		if _, err := ParseExtractMode(string(job.Mode)); err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", job.Name, err))
		}
		if job.BookSlug == "" {
			errs = append(errs, fmt.Errorf("job %s: book_slug is required", job.Name))
		}
		if job.FirstChapter < 1 || job.LastChapter < job.FirstChapter {
			errs = append(errs, fmt.Errorf("job %s: invalid chapter range %d..%d", job.Name, job.FirstChapter, job.LastChapter))
		}
	}
	return errors.Join(errs...)
}

// SchemaFor returns the page schema name a job's pages are read with.
func (s SiteConfig) SchemaFor(job JobConfig) string {
	if job.Schema != "" {
		return job.Schema
	}
	return s.Schema
}

// Job returns the job with the given name.
func (c *Config) Job(name string) (JobConfig, bool) {
	for _, job := range c.Jobs {
		if job.Name == name {
			return job, true
		}
	}
	return JobConfig{}, false
}

// ChapterURL builds <origin>/<locale>/<corpus>/<translation>/<book-slug>/<chapter>.
// Empty path segments are skipped.
func (s SiteConfig) ChapterURL(job JobConfig, chapter int) (string, error) {
	var segments []string
	for _, seg := range []string{s.Locale, s.Corpus, job.Translation, job.BookSlug, strconv.Itoa(chapter)} {
		if seg = strings.Trim(seg, "/"); seg != "" {
			segments = append(segments, seg)
		}
	}
	u, err := url.JoinPath(s.Origin, segments...)
	if err != nil {
		return "", fmt.Errorf("failed to build chapter URL: %w", err)
	}
	return u, nil
}

// Resolve turns a (usually root-relative) link found on a page into an absolute URL
// on the configured origin.
func (s SiteConfig) Resolve(href string) (string, error) {
	base, err := url.Parse(s.Origin)
	if err != nil {
		return "", fmt.Errorf("failed to parse origin: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("failed to parse link %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
