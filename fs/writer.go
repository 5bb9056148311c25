// Package fs writes exported routes to the local filesystem.
package fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/sitexport"
)

// Ensure Writer implements sitexport.PageWriter at compile time.
var _ sitexport.PageWriter = (*Writer)(nil)

// Writer writes route bodies under a root directory.
// Every write is confined to the root; paths that escape it fail with
// EUNSAFEPATH.
type Writer struct {
	root string
}

// NewWriter creates a Writer rooted at dir. The directory is created on
// first write.
func NewWriter(dir string) (*Writer, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Writer{root: root}, nil
}

// Root returns the absolute output directory.
func (w *Writer) Root() string {
	return w.root
}

// Resolve maps route to an absolute file path inside the root.
func (w *Writer) Resolve(route string) (string, error) {
	return w.resolve(RouteToPath(route))
}

// WriteRoute writes body verbatim to the file mapped from route.
func (w *Writer) WriteRoute(route string, body []byte) (string, error) {
	full, err := w.resolve(RouteToPath(route))
	if err != nil {
		return "", err
	}
	return full, writeFile(full, body)
}

// WritePartial writes body to the partial sibling of route's file.
func (w *Writer) WritePartial(route string, body []byte) (string, error) {
	full, err := w.resolve(PartialPath(RouteToPath(route)))
	if err != nil {
		return "", err
	}
	return full, writeFile(full, body)
}

func (w *Writer) resolve(rel string) (string, error) {
	full := filepath.Join(w.root, filepath.FromSlash(rel))
	inside, err := filepath.Rel(w.root, full)
	if err != nil || inside == "." || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", sitexport.Errorf(sitexport.EUNSAFEPATH, "path %q escapes output directory", rel)
	}
	return full, nil
}

func writeFile(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, body, 0644)
}
