package fileutils

import (
	"io"
	"os"
	"path/filepath"
)

// WriteCounter counts bytes flowing through it and reports them to OnWrite.
type WriteCounter struct {
	Total   int64
	Size    int64
	OnWrite func(size int64, total int64)
}

func (wc *WriteCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Size += int64(n)
	if wc.OnWrite != nil {
		wc.OnWrite(wc.Size, wc.Total)
	}
	return n, nil
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteStream copies r into path, creating parent directories. When the copy
// fails the partial file is removed so no truncated file is left behind.
func WriteStream(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(file, r)
	if err1 := file.Close(); err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(path)
		return n, err
	}
	return n, nil
}

func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	err := os.WriteFile(path, data, 0644)
	if err != nil {
		os.Remove(path)
	}
	return err
}
