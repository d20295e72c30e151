package store

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileTier persists values as files under a base directory, one file per
// key. Writes go through a temp file plus rename so a crash mid-write never
// leaves a torn value behind.
type FileTier struct {
	base string
}

func NewFileTier(base string) (*FileTier, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FileTier{base: base}, nil
}

func (t *FileTier) Name() string { return "file" }

// Keys map to flat file names. Query-escaping is injective, so two
// distinct keys can never share a file, and escaped separators cannot
// climb out of the base directory.
func (t *FileTier) path(key string) string {
	return filepath.Join(t.base, url.QueryEscape(key)+".json")
}

func (t *FileTier) Get(_ context.Context, key string) ([]byte, error) {
	buf, err := os.ReadFile(t.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *FileTier) Set(_ context.Context, key string, value []byte) error {
	dst := t.path(key)
	tmp, err := os.CreateTemp(t.base, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func (t *FileTier) Remove(_ context.Context, key string) error {
	err := os.Remove(t.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (t *FileTier) HealthCheck(context.Context) error {
	info, err := os.Stat(t.base)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("base path is not a directory")
	}
	return nil
}

// EvictOldestHalf removes the oldest half of stored files by modification
// time.
func (t *FileTier) EvictOldestHalf(context.Context) (int, error) {
	entries, err := os.ReadDir(t.base)
	if err != nil {
		return 0, err
	}

	type aged struct {
		name string
		mod  int64
	}
	files := make([]aged, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, aged{name: e.Name(), mod: info.ModTime().UnixNano()})
	}
	if len(files) == 0 {
		return 0, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod < files[j].mod })

	half := (len(files) + 1) / 2
	removed := 0
	for _, f := range files[:half] {
		if err := os.Remove(filepath.Join(t.base, f.name)); err == nil {
			removed++
		}
	}
	return removed, nil
}
