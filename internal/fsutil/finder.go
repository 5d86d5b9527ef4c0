// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DocumentExtension is the file extension of template documents.
const DocumentExtension = ".quill"

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// DocumentNames lists the documents under rootPath by name: the slash
// separated path relative to rootPath without the extension, sorted.
func DocumentNames(rootPath string) ([]string, error) {
	files, err := FindFilesByExtension(rootPath, DocumentExtension)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(rootPath, f)
		if err != nil {
			return nil, err
		}
		names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, DocumentExtension)))
	}
	sort.Strings(names)
	return names, nil
}

// DocumentPath is the inverse of DocumentNames for a single name.
func DocumentPath(rootPath, name string) string {
	return filepath.Join(rootPath, filepath.FromSlash(name)+DocumentExtension)
}
