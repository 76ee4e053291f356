// Package chrome reads and writes Chrome profile bookmark files.
package chrome

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// BookmarksFile is the file name Chrome keeps in every profile directory.
const BookmarksFile = "Bookmarks"

// DefaultProfile is used when no profile name is given.
const DefaultProfile = "Default"

// ErrUnsupportedPlatform is returned when no profiles root is known for the OS.
var ErrUnsupportedPlatform = errors.New("unsupported platform: set BMC_BROWSER_ROOT")

// ProfileNotFoundError is returned by Locate for an unknown profile name.
type ProfileNotFoundError struct {
	Name string
	Root string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile %q not found under %s", e.Name, e.Root)
}

// Profile is one Chrome profile with a bookmarks file.
type Profile struct {
	Name string // directory name, e.g. "Default" or "Profile 1"
	Dir  string
	File string
}

// Locator finds profiles under a browser root.
type Locator struct {
	root string
}

// Env supplies what the locator needs from the host.
type Env struct {
	GOOS         string
	Home         string
	LocalAppData string
}

// HostEnv reads Env from the running process.
func HostEnv() Env {
	home, _ := os.UserHomeDir()
	return Env{
		GOOS:         runtime.GOOS,
		Home:         home,
		LocalAppData: os.Getenv("LOCALAPPDATA"),
	}
}

// ProfilesRoot returns the directory holding Chrome profiles for env.
func ProfilesRoot(env Env) (string, error) {
	switch env.GOOS {
	case "linux":
		if env.Home == "" {
			return "", errors.New("cannot resolve home directory")
		}
		return filepath.Join(env.Home, ".config", "google-chrome"), nil
	case "darwin":
		if env.Home == "" {
			return "", errors.New("cannot resolve home directory")
		}
		return filepath.Join(env.Home, "Library", "Application Support", "Google", "Chrome"), nil
	case "windows":
		if env.LocalAppData == "" {
			return "", errors.New("LOCALAPPDATA is not set")
		}
		return filepath.Join(env.LocalAppData, "Google", "Chrome", "User Data"), nil
	default:
		return "", ErrUnsupportedPlatform
	}
}

// NewLocator returns a locator for root. An empty root is resolved from env.
func NewLocator(root string, env Env) (*Locator, error) {
	if root == "" {
		r, err := ProfilesRoot(env)
		if err != nil {
			return nil, err
		}
		root = r
	}
	return &Locator{root: root}, nil
}

// Root returns the profiles root directory.
func (l *Locator) Root() string { return l.root }

// ListProfiles returns every direct subdirectory of the root that holds a
// bookmarks file, sorted by name. A missing root yields no profiles.
func (l *Locator) ListProfiles() ([]Profile, error) {
	dirs, err := os.ReadDir(l.root)
	if errors.Is(err, os.ErrNotExist) {
		return []Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles root %s: %w", l.root, err)
	}

	profiles := make([]Profile, 0, len(dirs))
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		dir := filepath.Join(l.root, d.Name())
		file := filepath.Join(dir, BookmarksFile)
		if info, err := os.Stat(file); err != nil || info.IsDir() {
			continue
		}
		profiles = append(profiles, Profile{Name: d.Name(), Dir: dir, File: file})
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// Locate returns the profile called name, matched case-insensitively.
// An empty name selects the default profile.
func (l *Locator) Locate(name string) (Profile, error) {
	if name == "" {
		dir := filepath.Join(l.root, DefaultProfile)
		file := filepath.Join(dir, BookmarksFile)
		if _, err := os.Stat(dir); err != nil {
			return Profile{}, fmt.Errorf("bookmarks directory %s: %w", dir, err)
		}
		if _, err := os.Stat(file); err != nil {
			return Profile{}, fmt.Errorf("bookmarks file %s: %w", file, err)
		}
		return Profile{Name: DefaultProfile, Dir: dir, File: file}, nil
	}

	profiles, err := l.ListProfiles()
	if err != nil {
		return Profile{}, err
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Profile{}, &ProfileNotFoundError{Name: name, Root: l.root}
}
