package chrome

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/domain"
	"github.com/MrSnakeDoc/bookmark-checker/internal/utils"
)

const (
	keyChildren = "children"
	keyType     = "type"
	keyName     = "name"
	keyURL      = "url"
	keyChecksum = "checksum"

	typeURL    = "url"
	typeFolder = "folder"

	backupLayout = "2006-01-02T15-04-05"
)

// Store is a loaded bookmarks file. The JSON tree is kept generic so keys
// this package does not know about survive a Save.
type Store struct {
	path    string
	root    any
	removed int
	now     func() time.Time
}

// Load reads and parses the bookmarks file at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.IOError{Op: "read bookmarks", Path: path, Err: err}
	}
	root, err := decode(data)
	if err != nil {
		return nil, &domain.FormatError{Path: path, Err: err}
	}
	return &Store{path: path, root: root, now: time.Now}, nil
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return root, nil
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string { return s.path }

// Removed returns how many nodes RemoveMatching has dropped since Load.
func (s *Store) Removed() int { return s.removed }

// Entries returns every url node in document order. Inside an object the
// children array is visited first, then the remaining keys by name.
func (s *Store) Entries() []domain.BookmarkEntry {
	var out []domain.BookmarkEntry
	walk(s.root, []string{}, func(obj map[string]any, folder []string) {
		name, okName := obj[keyName].(string)
		url, okURL := obj[keyURL].(string)
		if !okName || !okURL {
			return
		}
		out = append(out, domain.BookmarkEntry{
			URL:        url,
			Name:       name,
			FolderPath: append([]string{}, folder...),
		})
	})
	if out == nil {
		out = []domain.BookmarkEntry{}
	}
	return out
}

// walk calls visit for every url node, tracking the folder path.
func walk(node any, folder []string, visit func(map[string]any, []string)) {
	switch n := node.(type) {
	case map[string]any:
		if isURL(n) {
			visit(n, folder)
		}
		inner := folder
		if n[keyType] == typeFolder {
			if name, ok := n[keyName].(string); ok {
				inner = append(folder[:len(folder):len(folder)], name)
			}
		}
		if children, ok := n[keyChildren].([]any); ok {
			for _, c := range children {
				walk(c, inner, visit)
			}
		}
		for _, k := range otherKeys(n) {
			walk(n[k], inner, visit)
		}
	case []any:
		for _, c := range n {
			walk(c, folder, visit)
		}
	}
}

func isURL(obj map[string]any) bool {
	t, _ := obj[keyType].(string)
	return t == typeURL
}

func otherKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if k != keyChildren {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// RemoveMatching deletes every url node whose natural key equals key and
// returns how many were removed.
func (s *Store) RemoveMatching(key domain.NaturalKey) int {
	var n int
	s.root, n = prune(s.root, []string{}, key)
	s.removed += n
	return n
}

// prune returns node with matching url nodes dropped. A nil return with
// a count of one means node itself matched.
func prune(node any, folder []string, key domain.NaturalKey) (any, int) {
	switch n := node.(type) {
	case map[string]any:
		if isURL(n) {
			if url, ok := n[keyURL].(string); ok && domain.KeyOf(url, folder) == key {
				return nil, 1
			}
		}
		inner := folder
		if n[keyType] == typeFolder {
			if name, ok := n[keyName].(string); ok {
				inner = append(folder[:len(folder):len(folder)], name)
			}
		}
		removed := 0
		if children, ok := n[keyChildren].([]any); ok {
			kept, c := pruneSlice(children, inner, key)
			n[keyChildren] = kept
			removed += c
		}
		for _, k := range otherKeys(n) {
			v, c := prune(n[k], inner, key)
			removed += c
			if c > 0 && v == nil {
				delete(n, k)
				continue
			}
			n[k] = v
		}
		return n, removed
	case []any:
		kept, c := pruneSlice(n, folder, key)
		return kept, c
	default:
		return node, 0
	}
}

func pruneSlice(items []any, folder []string, key domain.NaturalKey) ([]any, int) {
	kept := items[:0]
	removed := 0
	for _, item := range items {
		v, c := prune(item, folder, key)
		removed += c
		if c > 0 && v == nil {
			continue
		}
		kept = append(kept, v)
	}
	return kept, removed
}

// Save copies the original file to a timestamped backup next to it, then
// writes the mutated tree. The stale checksum is dropped so Chrome
// recomputes it. It returns the backup path.
func (s *Store) Save() (string, error) {
	backup, err := s.backup()
	if err != nil {
		return "", err
	}

	if obj, ok := s.root.(map[string]any); ok {
		delete(obj, keyChecksum)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "   ")
	if err := enc.Encode(s.root); err != nil {
		return backup, &domain.IOError{Op: "encode bookmarks", Path: s.path, Err: err}
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return backup, &domain.IOError{Op: "stat bookmarks", Path: s.path, Err: err}
	}
	if err := os.WriteFile(s.path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return backup, &domain.IOError{Op: "write bookmarks", Path: s.path, Err: err}
	}
	return backup, nil
}

func (s *Store) backup() (string, error) {
	name := fmt.Sprintf("%s-%s.bak", filepath.Base(s.path), s.now().UTC().Format(backupLayout))
	dst := filepath.Join(filepath.Dir(s.path), name)

	src, err := os.Open(s.path)
	if err != nil {
		return "", &domain.IOError{Op: "read bookmarks", Path: s.path, Err: err}
	}
	defer utils.Close(src)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", &domain.IOError{Op: "create backup", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return "", &domain.IOError{Op: "write backup", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return "", &domain.IOError{Op: "write backup", Path: dst, Err: err}
	}
	return dst, nil
}
