package files

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "luminexcli/internal/errors"
)

// LockFilePrefix marks the owner files spreadsheet editors leave next to an
// open workbook.
const LockFilePrefix = "~$"

// LayoutSuffix is stripped from a workbook stem to get its plate name.
const LayoutSuffix = "_layout"

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Stem returns the file name without its extension
func (f FileInfo) Stem() string {
	return Stem(f.Name)
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// passed to its methods are resolved against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindRawExports lists the instrument exports (*.csv) in dir sorted by name,
// so plate order is stable across runs.
func (d *Discovery) FindRawExports(dir string) ([]FileInfo, error) {
	return d.find(dir, func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ".csv")
	})
}

// FindLayoutWorkbooks lists .xlsx and .xls layout workbooks in dir sorted by
// name, skipping editor lock files.
func (d *Discovery) FindLayoutWorkbooks(dir string) ([]FileInfo, error) {
	return d.find(dir, func(name string) bool {
		if strings.HasPrefix(name, LockFilePrefix) {
			return false
		}
		ext := strings.ToLower(filepath.Ext(name))
		return ext == ".xlsx" || ext == ".xls"
	})
}

func (d *Discovery) find(dir string, match func(name string) bool) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound, "directory "+fullPath+" not found", err).
				WithContext("path", fullPath)
		}
		return nil, apperrors.NewStorageError("failed to read directory "+fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// Stem returns a file name without directory or extension
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PlateFromLayout derives the plate name from a layout workbook name, e.g.
// plate1_layout.xlsx -> plate1. Names without the suffix keep their stem.
func PlateFromLayout(name string) string {
	return strings.TrimSuffix(Stem(name), LayoutSuffix)
}
