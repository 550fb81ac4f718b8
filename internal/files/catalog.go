package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/errors"
)

// FileInfo describes a loadable file in the data directory
type FileInfo struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Catalog resolves dataset paths against a base data directory and lists
// the order tables found there.
type Catalog struct {
	baseDir string
	logger  *slog.Logger
}

// NewCatalog creates a catalog rooted at baseDir.
func NewCatalog(baseDir string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		baseDir: filepath.Clean(baseDir),
		logger:  logger.With(slog.String("component", "file_catalog")),
	}
}

// contains reports whether path lies inside the data directory.
func (c *Catalog) contains(path string) bool {
	base, err := filepath.Abs(c.baseDir)
	if err != nil {
		return false
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// BaseDir returns the data directory
func (c *Catalog) BaseDir() string {
	return c.baseDir
}

// EnsureDir creates the data directory if it doesn't exist
func (c *Catalog) EnsureDir() error {
	if err := os.MkdirAll(c.baseDir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", c.baseDir, err)
	}
	return nil
}

// Resolve maps a caller-supplied path to a file path inside the data
// directory. Relative paths are joined to it; absolute paths are accepted
// only when they already point inside it.
func (c *Catalog) Resolve(path string) (string, error) {
	if path == "" {
		return "", errors.NewUnsupportedValueError("path", path)
	}

	full := filepath.Clean(path)
	if !filepath.IsAbs(full) {
		full = filepath.Join(c.baseDir, path)
	}
	if !c.contains(full) {
		c.logger.Warn("Rejected path outside data directory",
			slog.String("path", path),
			slog.String("data_dir", c.baseDir))
		return "", errors.NewUnsupportedValueError("path", path)
	}

	c.logger.Debug("Resolved dataset path",
		slog.String("path", path),
		slog.String("full_path", full))
	return full, nil
}

// List returns the loadable files in the data directory, newest first.
// A missing directory yields an empty list.
func (c *Catalog) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", c.baseDir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !dataprocessing.IsSupported(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(c.baseDir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Latest returns the most recently modified loadable file.
func (c *Catalog) Latest() (FileInfo, error) {
	files, err := c.List()
	if err != nil {
		return FileInfo{}, err
	}
	if len(files) == 0 {
		return FileInfo{}, errors.NewNotFoundError(filepath.Join(c.baseDir, "*"))
	}
	return files[0], nil
}
