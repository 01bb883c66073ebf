// Package snapshot records modification times of a directory tree and
// compares such records.
package snapshot

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Kind of change between two snapshots.
type Kind int

const (
	Created Kind = iota + 1
	Deleted
	Changed
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "Created"
	case Deleted:
		return "Deleted"
	case Changed:
		return "Changed"
	}
	return "Unknown"
}

// Snapshot maps normalized paths to modification times. It is never
// modified after creation.
type Snapshot struct {
	entries map[string]time.Time
}

// New creates snapshot from entries, paths are used as given.
func New(entries map[string]time.Time) Snapshot {
	m := make(map[string]time.Time, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return Snapshot{entries: m}
}

// Len returns number of recorded entries.
func (s Snapshot) Len() int {
	return len(s.entries)
}

// ModTime returns recorded time for path.
func (s Snapshot) ModTime(path string) (time.Time, bool) {
	t, ok := s.entries[path]
	return t, ok
}

// Paths returns recorded paths in sorted order.
func (s Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Normalize makes path absolute, clean and slash separated.
func Normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// Take records root and everything under it. Directories nested deeper
// than depth levels below root are not descended into, files directly in
// the deepest directories are still recorded. A file root produces single
// entry, missing root produces empty snapshot.
func Take(root string, depth int) (Snapshot, error) {
	entries := make(map[string]time.Time)

	fi, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Snapshot{entries: entries}, nil
	case err != nil:
		return Snapshot{}, err
	case !fi.IsDir():
		entries[Normalize(root)] = fi.ModTime()
		return Snapshot{entries: entries}, nil
	}

	base := Normalize(root)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// removed while walking
				return nil
			}
			return err
		}

		norm := Normalize(path)
		if d.IsDir() && level(base, norm) > depth {
			return filepath.SkipDir
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		entries[norm] = info.ModTime()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{entries: entries}, nil
}

// level returns number of path elements of path below base.
func level(base, path string) int {
	rel := strings.TrimPrefix(strings.TrimPrefix(path, base), "/")
	if rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

// Diff reports paths present only in prev as Deleted, only in next as
// Created, and paths with strictly later time in next as Changed.
func Diff(prev, next Snapshot) map[string]Kind {
	changes := make(map[string]Kind)
	for path, pt := range prev.entries {
		nt, ok := next.entries[path]
		switch {
		case !ok:
			changes[path] = Deleted
		case nt.After(pt):
			changes[path] = Changed
		}
	}
	for path := range next.entries {
		if _, ok := prev.entries[path]; !ok {
			changes[path] = Created
		}
	}
	return changes
}
