package domain

import "strings"

// BookmarkEntry represents one bookmark extracted from a browser store.
// Entries are values: they are copied across component boundaries and
// never mutated after extraction.
type BookmarkEntry struct {
	// URL is the absolute URI the bookmark points to.
	// Example: https://go.dev/doc/
	URL string `yaml:"url" json:"url"`

	// Name is the display label. May be empty.
	Name string `yaml:"name" json:"name"`

	// FolderPath lists folder names from the store root down to the
	// containing folder. Empty means the entry sits at the root.
	// Example: ["Bookmarks bar", "Go"]
	FolderPath []string `yaml:"folder_path" json:"folder_path"`
}

// NaturalKey identifies an entry across a scan pass and a later cleanup pass.
// Equality is exact: no case folding, no trailing-slash normalization.
type NaturalKey struct {
	URL    string
	Folder string
}

// folderSep joins folder names inside a key. Browsers do not put NUL in
// folder names, so two different paths never collapse to one key.
const folderSep = "\x00"

// Key returns the entry's natural key.
func (e BookmarkEntry) Key() NaturalKey {
	return KeyOf(e.URL, e.FolderPath)
}

// KeyOf builds a natural key from its parts.
func KeyOf(url string, folderPath []string) NaturalKey {
	return NaturalKey{
		URL:    url,
		Folder: strings.Join(folderPath, folderSep),
	}
}

// Location renders the folder path for humans.
// Example: "Bookmarks bar / Go"
func (e BookmarkEntry) Location() string {
	if len(e.FolderPath) == 0 {
		return "/"
	}
	return strings.Join(e.FolderPath, " / ")
}

// Clone returns a deep copy so the folder path backing array is not shared.
func (e BookmarkEntry) Clone() BookmarkEntry {
	out := e
	if e.FolderPath != nil {
		out.FolderPath = append([]string(nil), e.FolderPath...)
	}
	return out
}
