// Package archive reads factory image zips.
//
// Entries are looked up by basename: "image-sargo.zip" matches both
// "image-sargo.zip" and "sargo-qq1a/image-sargo.zip". Update packages are zips
// nested inside the factory zip and are opened in memory with Entry.Archive.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// NotFoundError indicates that no file entry has the requested basename.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found in archive", e.Name)
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Archive is an opened zip archive.
type Archive struct {
	entries []*Entry
	closer  io.Closer
}

// Entry is one file or directory in an archive.
type Entry struct {
	// Name is the full path inside the archive
	Name string

	// Dir is true for directory entries
	Dir bool

	// Size is the uncompressed size in bytes
	Size int64

	file *zip.File
}

// Open reads the zip directory from r.
func Open(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("read zip: %w", err)
	}
	return newArchive(zr, nil), nil
}

// OpenBytes opens an archive held in memory.
func OpenBytes(b []byte) (*Archive, error) {
	return Open(bytes.NewReader(b), int64(len(b)))
}

// OpenFile opens the archive at path. Close releases the file.
//
// Example:
//
//	a, err := archive.OpenFile("sargo-factory.zip")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
func OpenFile(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return newArchive(&rc.Reader, rc), nil
}

func newArchive(zr *zip.Reader, closer io.Closer) *Archive {
	a := &Archive{closer: closer}
	for _, f := range zr.File {
		info := f.FileInfo()
		a.entries = append(a.entries, &Entry{
			Name: f.Name,
			Dir:  info.IsDir(),
			Size: int64(f.UncompressedSize64),
			file: f,
		})
	}
	return a
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Entries returns every entry in directory order.
func (a *Archive) Entries() []*Entry {
	return append([]*Entry(nil), a.entries...)
}

// Find returns the first file entry whose basename is name.
func (a *Archive) Find(name string) (*Entry, error) {
	for _, e := range a.entries {
		if !e.Dir && e.Base() == name {
			return e, nil
		}
	}
	return nil, &NotFoundError{Name: name}
}

// Base returns the part of the name after the last '/'.
func (e *Entry) Base() string {
	return Base(e.Name)
}

// Base returns the part of name after the last '/'.
func Base(name string) string {
	name = strings.TrimSuffix(name, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Open returns a reader over the uncompressed contents.
func (e *Entry) Open() (io.ReadCloser, error) {
	if e.Dir {
		return nil, fmt.Errorf("%s is a directory", e.Name)
	}
	return e.file.Open()
}

// Bytes returns the uncompressed contents.
func (e *Entry) Bytes() ([]byte, error) {
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", e.Name, err)
	}
	return data, nil
}

// Text returns the contents as a string.
func (e *Entry) Text() (string, error) {
	data, err := e.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Archive opens the entry as a nested zip archive.
func (e *Entry) Archive() (*Archive, error) {
	data, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	a, err := OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("open nested %s: %w", e.Name, err)
	}
	return a, nil
}
