package consolidator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nconklindev/tally/internal/types"
)

// Discover lists the source workbooks in dir: regular files whose name
// starts with prefix and ends with ext. The output workbook is never
// returned. Files are sorted by name so reruns consolidate in the same order.
func Discover(dir, prefix, ext, outputName string) ([]types.SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectory, dir, err)
	}

	var files []types.SourceFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) || name == outputName {
			continue
		}

		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}

		files = append(files, types.SourceFile{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    size,
			DateTag: DecodeFilename(name),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}
