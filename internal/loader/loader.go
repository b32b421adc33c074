// Package loader defines how frame payloads are fetched by index.
//
// The engine and prefetch coordinator only see the Loader interface; the
// concrete implementations here read extracted frame files from the cache
// directory. Loads are assumed idempotent per index, and callers deduplicate
// at their own layer.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader fetches the payload for one frame index.
type Loader interface {
	Load(ctx context.Context, index int) ([]byte, error)
}

// Func adapts a plain function to the Loader interface.
type Func func(ctx context.Context, index int) ([]byte, error)

// Load implements Loader.
func (f Func) Load(ctx context.Context, index int) ([]byte, error) {
	return f(ctx, index)
}

// Dir serves frames from per-frame files in one directory, ordered by file
// name. Extraction writes zero-padded names, so lexical order is frame order.
type Dir struct {
	root  string
	files []string
}

// OpenDir lists the directory and fixes the frame ordering. Hidden files and
// subdirectories are ignored.
func OpenDir(root string) (*Dir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return &Dir{root: root, files: files}, nil
}

// Len returns the number of frames found.
func (d *Dir) Len() int { return len(d.files) }

// Load reads the payload for index.
func (d *Dir) Load(ctx context.Context, index int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(d.files) {
		return nil, fmt.Errorf("frame index %d out of range [0,%d)", index, len(d.files))
	}
	data, err := os.ReadFile(filepath.Join(d.root, d.files[index]))
	if err != nil {
		return nil, fmt.Errorf("read frame %d: %w", index, err)
	}
	return data, nil
}
