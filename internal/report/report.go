// Package report owns the failure report file shared by scan and cleanup passes.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/bookmark-checker/internal/domain"
)

// SchemaVersion is written into every report.
const SchemaVersion = 1

// DefaultFile is the report name used when none is configured.
const DefaultFile = "bookmark_failures.yml"

// Entry is one failing bookmark as persisted.
type Entry struct {
	URL        string   `yaml:"url" json:"url"`
	Name       string   `yaml:"name" json:"name"`
	FolderPath []string `yaml:"folder_path" json:"folder_path"`
	// Reason is informational and never used for matching.
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Bookmark returns the entry without its reason.
func (e Entry) Bookmark() domain.BookmarkEntry {
	return domain.BookmarkEntry{URL: e.URL, Name: e.Name, FolderPath: e.FolderPath}
}

// Key returns the entry's natural key.
func (e Entry) Key() domain.NaturalKey {
	return domain.KeyOf(e.URL, e.FolderPath)
}

// UnmarshalYAML requires folder_path to be present. An explicit empty
// sequence is the root folder.
func (e *Entry) UnmarshalYAML(value *yaml.Node) error {
	type plain Entry
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	if !hasKey(value, "folder_path") {
		return fmt.Errorf("line %d: entry %q has no folder_path", value.Line, p.URL)
	}
	*e = Entry(p)
	return nil
}

func hasKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// FailureReport is the categorized output of one scan pass.
type FailureReport struct {
	SchemaVersion    int       `yaml:"schema_version" json:"schema_version"`
	GeneratedAt      time.Time `yaml:"generated_at" json:"generated_at"`
	NotFound         []Entry   `yaml:"not_found" json:"not_found"`
	Unauthorized     []Entry   `yaml:"unauthorized" json:"unauthorized"`
	ConnectionErrors []Entry   `yaml:"connection_errors" json:"connection_errors"`
}

// New returns an empty report stamped with now.
func New(now time.Time) *FailureReport {
	return &FailureReport{
		SchemaVersion:    SchemaVersion,
		GeneratedAt:      now.UTC().Truncate(time.Second),
		NotFound:         []Entry{},
		Unauthorized:     []Entry{},
		ConnectionErrors: []Entry{},
	}
}

// FromResults builds a report from check results. Successful outcomes are
// dropped; failures keep their input order inside each category. A natural
// key is filed once, under the first failure seen for it.
func FromResults(results []domain.CheckResult, now time.Time) *FailureReport {
	r := New(now)
	seen := make(map[domain.NaturalKey]struct{})
	for _, res := range results {
		if res.Outcome.OK() {
			continue
		}
		key := res.Entry.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		r.Add(res.Outcome.Kind, res.Entry, res.Outcome.Detail)
	}
	return r
}

// Add appends entry to the category of kind.
func (r *FailureReport) Add(kind domain.FailureKind, entry domain.BookmarkEntry, reason string) {
	e := Entry{URL: entry.URL, Name: entry.Name, FolderPath: entry.Clone().FolderPath, Reason: reason}
	if e.FolderPath == nil {
		e.FolderPath = []string{}
	}
	switch kind {
	case domain.NotFound:
		r.NotFound = append(r.NotFound, e)
	case domain.Unauthorized:
		r.Unauthorized = append(r.Unauthorized, e)
	default:
		r.ConnectionErrors = append(r.ConnectionErrors, e)
	}
}

// Category returns the entries filed under kind.
func (r *FailureReport) Category(kind domain.FailureKind) []Entry {
	switch kind {
	case domain.NotFound:
		return r.NotFound
	case domain.Unauthorized:
		return r.Unauthorized
	case domain.ConnectionError:
		return r.ConnectionErrors
	default:
		return nil
	}
}

// Entries returns every entry across all categories in report order.
func (r *FailureReport) Entries() []Entry {
	return lo.FlatMap(domain.FailureKinds, func(k domain.FailureKind, _ int) []Entry {
		return r.Category(k)
	})
}

// Counts returns the number of entries per kind.
func (r *FailureReport) Counts() map[domain.FailureKind]int {
	return lo.SliceToMap(domain.FailureKinds, func(k domain.FailureKind) (domain.FailureKind, int) {
		return k, len(r.Category(k))
	})
}

// Total returns the number of failing entries.
func (r *FailureReport) Total() int {
	return len(r.NotFound) + len(r.Unauthorized) + len(r.ConnectionErrors)
}

// Validate checks the invariants a report must hold before cleanup trusts it.
func (r *FailureReport) Validate() error {
	seen := make(map[domain.NaturalKey]domain.FailureKind)
	for _, kind := range domain.FailureKinds {
		for i, e := range r.Category(kind) {
			if e.URL == "" {
				return fmt.Errorf("%s[%d]: missing url", categoryKey(kind), i)
			}
			if prev, dup := seen[e.Key()]; dup {
				return fmt.Errorf("%s[%d]: %s already listed under %s", categoryKey(kind), i, e.URL, categoryKey(prev))
			}
			seen[e.Key()] = kind
		}
	}
	return nil
}

func categoryKey(kind domain.FailureKind) string {
	switch kind {
	case domain.NotFound:
		return "not_found"
	case domain.Unauthorized:
		return "unauthorized"
	default:
		return "connection_errors"
	}
}

// Marshal renders the report as YAML.
func Marshal(r *FailureReport) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses and validates a report. Unknown fields are ignored and
// absent categories read as empty.
func Unmarshal(data []byte) (*FailureReport, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, errors.New("empty document")
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("document is not a mapping")
	}

	var r FailureReport
	if err := node.Decode(&r); err != nil {
		return nil, err
	}
	r.NotFound = normalize(r.NotFound)
	r.Unauthorized = normalize(r.Unauthorized)
	r.ConnectionErrors = normalize(r.ConnectionErrors)

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func normalize(entries []Entry) []Entry {
	if entries == nil {
		return []Entry{}
	}
	for i := range entries {
		if entries[i].FolderPath == nil {
			entries[i].FolderPath = []string{}
		}
	}
	return entries
}

// Write stores r at path atomically: the YAML is written to a temporary
// file in the same directory and renamed over path.
func Write(r *FailureReport, path string) error {
	if err := r.Validate(); err != nil {
		return &domain.IOError{Op: "validate report", Path: path, Err: err}
	}
	data, err := Marshal(r)
	if err != nil {
		return &domain.IOError{Op: "encode report", Path: path, Err: err}
	}
	if err := writeAtomic(path, data); err != nil {
		return &domain.IOError{Op: "write report", Path: path, Err: err}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Read loads and validates the report at path. A missing, unreadable or
// invalid file is a FormatError.
func Read(path string) (*FailureReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.FormatError{Path: path, Err: err}
	}
	r, err := Unmarshal(data)
	if err != nil {
		return nil, &domain.FormatError{Path: path, Err: err}
	}
	return r, nil
}
