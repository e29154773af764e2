package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrRunNotFound = errors.New("checkpoint: run not found")

// Catalog is a data directory holding one subdirectory per run.
type Catalog struct {
	baseDir string
}

func NewCatalog(baseDir string) *Catalog {
	return &Catalog{baseDir: baseDir}
}

func (c *Catalog) Dir() string { return c.baseDir }

func (c *Catalog) Init() error {
	return os.MkdirAll(c.baseDir, 0755)
}

// NewRun creates an empty run directory named prefix_<timestamp>.
func (c *Catalog) NewRun(prefix string) (string, *FileStore, error) {
	if err := c.Init(); err != nil {
		return "", nil, err
	}
	if prefix == "" {
		prefix = "run"
	}
	base := fmt.Sprintf("%s_%s", prefix, time.Now().Format("20060102-150405"))
	id := base
	for n := 2; ; n++ {
		err := os.Mkdir(filepath.Join(c.baseDir, id), 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("create run directory: %w", err)
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id, NewFileStore(filepath.Join(c.baseDir, id)), nil
}

// Adopt returns the store of run id, creating the directory if needed.
func (c *Catalog) Adopt(id string) (*FileStore, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	dir := filepath.Join(c.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	return NewFileStore(dir), nil
}

// List returns the manifests of all runs, oldest first. Directories
// without a readable manifest are skipped.
func (c *Catalog) List(ctx context.Context) ([]Manifest, error) {
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Manifest{}, nil
		}
		return nil, err
	}

	runs := make([]Manifest, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m, err := LoadManifest(ctx, NewFileStore(filepath.Join(c.baseDir, entry.Name())))
		if err != nil {
			continue
		}
		runs = append(runs, *m)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].CreatedAt.Before(runs[j].CreatedAt) })
	return runs, nil
}

func (c *Catalog) Open(ctx context.Context, id string) (*FileStore, *Manifest, error) {
	if err := validID(id); err != nil {
		return nil, nil, err
	}
	st := NewFileStore(filepath.Join(c.baseDir, id))
	m, err := LoadManifest(ctx, st)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, nil, err
	}
	return st, m, nil
}

func validID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: invalid id %q", ErrRunNotFound, id)
	}
	return nil
}
