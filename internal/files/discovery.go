package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TabularExtensions lists the file extensions recognized as tabular data.
var TabularExtensions = []string{".csv", ".xlsx"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Symbol returns the file name without its extension, upper-cased.
func (f FileInfo) Symbol() string {
	return SymbolFromPath(f.Path)
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

// IsTabular reports whether name has a recognized tabular extension and is
// not a hidden, temporary or spreadsheet lock file.
func IsTabular(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range TabularExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SymbolFromPath derives the symbol from a per-symbol file name, e.g. "nabil.csv" -> "NABIL".
func SymbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

// FindTabularFiles finds all recognized tabular files directly inside dir,
// sorted by name. Subdirectories are not descended into.
func (d *Discovery) FindTabularFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsTabular(entry.Name()) {
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

// FindBySymbol returns the tabular file for symbol in dir, matching the
// file name case-insensitively.
func (d *Discovery) FindBySymbol(dir, symbol string) (FileInfo, bool, error) {
	files, err := d.FindTabularFiles(dir)
	if err != nil {
		return FileInfo{}, false, err
	}
	for _, f := range files {
		if strings.EqualFold(f.Symbol(), symbol) {
			return f, true, nil
		}
	}
	return FileInfo{}, false, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
