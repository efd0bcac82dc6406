package fileutils

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrEntryNotFound = errors.New("archive entry not found")

var nativeExtensions = []string{".dll", ".so", ".dylib", ".jnilib"}

// ReadEntry returns the contents of a single file inside a zip/jar archive.
func ReadEntry(archive string, name string) ([]byte, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrEntryNotFound, name, filepath.Base(archive))
}

func isNative(name string) bool {
	for _, ext := range nativeExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ExtractNatives copies every shared library in archive into destDir under
// its base name. Entries starting with an exclude prefix and files already
// present are skipped. A failing entry does not stop the others; their
// errors are joined into the returned error.
func ExtractNatives(archive string, destDir string, exclude []string) (int, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, err
	}

	extracted := 0
	var errs []error
	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !isNative(file.Name) || hasAnyPrefix(file.Name, exclude) {
			continue
		}

		dest := filepath.Join(destDir, path.Base(file.Name))
		if Exists(dest) {
			continue
		}
		if err := extractEntry(file, dest); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file.Name, err))
			continue
		}
		extracted++
	}
	return extracted, errors.Join(errs...)
}

// ExtractPrefix writes every file under prefix into destDir, keeping the
// layout below the prefix. Existing files are overwritten.
func ExtractPrefix(archive string, prefix string, destDir string) (int, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	root := filepath.Clean(destDir)
	extracted := 0
	var errs []error
	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !strings.HasPrefix(file.Name, prefix) {
			continue
		}

		rel := strings.TrimPrefix(file.Name, prefix)
		dest := filepath.Join(root, filepath.FromSlash(rel))
		if rel == "" || !strings.HasPrefix(dest, root+string(filepath.Separator)) {
			errs = append(errs, fmt.Errorf("%s: entry escapes destination", file.Name))
			continue
		}
		if err := extractEntry(file, dest); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file.Name, err))
			continue
		}
		extracted++
	}
	return extracted, errors.Join(errs...)
}

func extractEntry(file *zip.File, dest string) error {
	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = WriteStream(dest, f)
	return err
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
