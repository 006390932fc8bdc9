package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ChapterRecord is the outcome of one chapter page.
type ChapterRecord struct {
	Chapter int    `yaml:"chapter"`
	URL     string `yaml:"url"`
	Status  string `yaml:"status"`
	Updates int    `yaml:"updates"`
	Rows    int64  `yaml:"rows"`
	Error   string `yaml:"error,omitempty"`
}

// JobRecord groups chapter outcomes for one job.
type JobRecord struct {
	Name     string          `yaml:"name"`
	Mode     string          `yaml:"mode"`
	Chapters []ChapterRecord `yaml:"chapters"`
}

// Session is the record of one scrape run, written to sessions/<id>.yaml.
type Session struct {
	ID       string      `yaml:"session_id"`
	RunID    string      `yaml:"run_id"`
	Created  time.Time   `yaml:"created"`
	Finished time.Time   `yaml:"finished"`
	DryRun   bool        `yaml:"dry_run,omitempty"`
	Jobs     []JobRecord `yaml:"jobs"`
}

// SessionInfo is the per-run entry in index.yaml.
type SessionInfo struct {
	SessionID string    `yaml:"session_id"`
	Created   time.Time `yaml:"created"`
	DryRun    bool      `yaml:"dry_run,omitempty"`
	Jobs      []string  `yaml:"jobs"`
	Chapters  int       `yaml:"chapters"`
	Applied   int       `yaml:"applied"`
	Skipped   int       `yaml:"skipped"`
	Failed    int       `yaml:"failed"`
	Rows      int64     `yaml:"rows"`
}

// SessionIndex represents the index.yaml file.
type SessionIndex struct {
	Sessions []SessionInfo `yaml:"sessions"`
}

// New starts a session for the given run.
// Format of the ID: YYYY-MM-DDTHH-MM-SS-{first 8 of run id}, so IDs sort chronologically.
func New(runID uuid.UUID, created time.Time) *Session {
	return &Session{
		ID:      fmt.Sprintf("%s-%s", created.Format("2006-01-02T15-04-05"), runID.String()[:8]),
		RunID:   runID.String(),
		Created: created,
	}
}

// Info summarizes the session for the index.
func (s *Session) Info() SessionInfo {
	info := SessionInfo{SessionID: s.ID, Created: s.Created, DryRun: s.DryRun}
	for _, job := range s.Jobs {
		info.Jobs = append(info.Jobs, job.Name)
		info.Chapters += len(job.Chapters)
		for _, ch := range job.Chapters {
			switch ch.Status {
			case "applied":
				info.Applied++
			case "skipped":
				info.Skipped++
			case "failed":
				info.Failed++
			}
			info.Rows += ch.Rows
		}
	}
	return info
}

// GetSessionPath returns the path of a session record.
func GetSessionPath(baseDir, sessionID string) string {
	return filepath.Join(baseDir, "sessions", sessionID+".yaml")
}

// GetSessionsIndexPath returns the path to the sessions index file (at results root).
func GetSessionsIndexPath(baseDir string) string {
	return filepath.Join(baseDir, "index.yaml")
}

// Write stores the session record and adds it to the index.
func Write(baseDir string, s *Session) error {
	if err := os.MkdirAll(filepath.Join(baseDir, "sessions"), 0755); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	output, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(GetSessionPath(baseDir, s.ID), output, 0644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return UpdateSessionIndex(baseDir, s.Info())
}

// Load reads a session record back.
func Load(baseDir, sessionID string) (*Session, error) {
	data, err := os.ReadFile(GetSessionPath(baseDir, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &s, nil
}

// LoadIndex reads index.yaml. A missing index is empty.
func LoadIndex(baseDir string) (*SessionIndex, error) {
	var index SessionIndex
	data, err := os.ReadFile(GetSessionsIndexPath(baseDir))
	if os.IsNotExist(err) {
		return &index, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session index: %w", err)
	}
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse session index: %w", err)
	}
	return &index, nil
}

// Put adds a run or replaces the entry with the same ID, keeping the newest run first.
func (idx *SessionIndex) Put(info SessionInfo) {
	replaced := false
	for i := range idx.Sessions {
		if idx.Sessions[i].SessionID == info.SessionID {
			idx.Sessions[i] = info
			replaced = true
			break
		}
	}
	if !replaced {
		idx.Sessions = append(idx.Sessions, info)
	}

	sort.SliceStable(idx.Sessions, func(i, j int) bool {
		a, b := idx.Sessions[i], idx.Sessions[j]
		if !a.Created.Equal(b.Created) {
			return a.Created.After(b.Created)
		}
		return a.SessionID > b.SessionID
	})
}

// LastRun returns the newest run that wrote to the store for job. Dry runs are ignored.
func (idx *SessionIndex) LastRun(job string) (SessionInfo, bool) {
	for _, info := range idx.Sessions {
		if info.DryRun {
			continue
		}
		for _, name := range info.Jobs {
			if name == job {
				return info, true
			}
		}
	}
	return SessionInfo{}, false
}

// Save writes index.yaml.
func (idx *SessionIndex) Save(baseDir string) error {
	output, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal session index: %w", err)
	}
	if err := os.WriteFile(GetSessionsIndexPath(baseDir), output, 0644); err != nil {
		return fmt.Errorf("failed to write session index: %w", err)
	}
	return nil
}

// UpdateSessionIndex records one run in index.yaml.
func UpdateSessionIndex(baseDir string, info SessionInfo) error {
	index, err := LoadIndex(baseDir)
	if err != nil {
		return err
	}
	index.Put(info)
	return index.Save(baseDir)
}
