// Package content loads the per-chapter reference documents that ground the
// chapter assistant.
//
// The on-disk contract is a flat directory of plain-text files named
// chapter{N}.txt. The store validates chapter ids against a configured finite
// set before touching the filesystem, so an unknown id is distinguishable
// from a known id whose backing file is missing.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ErrNotFound is returned when no reference document exists for a chapter id
// — either the id is outside the configured set or its file is absent.
var ErrNotFound = errors.New("content: chapter document not found")

// Store provides read access to chapter reference documents.
type Store interface {
	// Load returns the full plain-text document for the chapter, or a
	// wrapped [ErrNotFound].
	Load(chapter int) (string, error)

	// IsValid reports whether chapter is in the configured chapter set.
	IsValid(chapter int) bool

	// Chapters returns the configured chapter ids in ascending order.
	Chapters() []int
}

// DirStore is a [Store] backed by a directory of chapter{N}.txt files.
// Immutable after construction; safe for concurrent use.
type DirStore struct {
	dir      string
	chapters []int
}

var _ Store = (*DirStore)(nil)

// NewDirStore creates a [DirStore] over dir for the given chapter set.
// The directory must exist; individual chapter files are only checked on
// Load so that a missing file surfaces per-request, matching the original
// deployment where content files can be added without a restart.
func NewDirStore(dir string, chapters []int) (*DirStore, error) {
	if len(chapters) == 0 {
		return nil, errors.New("content: chapter set must not be empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("content: stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content: %q is not a directory", dir)
	}

	sorted := slices.Clone(chapters)
	slices.Sort(sorted)
	return &DirStore{dir: dir, chapters: sorted}, nil
}

// Load implements [Store].
func (s *DirStore) Load(chapter int) (string, error) {
	if !s.IsValid(chapter) {
		return "", fmt.Errorf("%w: chapter %d is not configured", ErrNotFound, chapter)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("chapter%d.txt", chapter))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: no content file for chapter %d", ErrNotFound, chapter)
	}
	if err != nil {
		return "", fmt.Errorf("content: read %q: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: content file for chapter %d is empty", ErrNotFound, chapter)
	}
	return text, nil
}

// IsValid implements [Store].
func (s *DirStore) IsValid(chapter int) bool {
	_, ok := slices.BinarySearch(s.chapters, chapter)
	return ok
}

// Chapters implements [Store].
func (s *DirStore) Chapters() []int {
	return slices.Clone(s.chapters)
}

var chapterFileName = regexp.MustCompile(`^chapter(\d+)\.txt$`)

// DiscoverChapters scans dir for chapter{N}.txt files and returns the ids in
// ascending order. Used when the chapter set is not configured explicitly.
func DiscoverChapters(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("content: read dir %q: %w", dir, err)
	}

	var chapters []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := chapterFileName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		chapters = append(chapters, n)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("content: no chapter files in %q", dir)
	}
	slices.Sort(chapters)
	return chapters, nil
}
