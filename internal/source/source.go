// Package source loads screenshots for analysis from image files,
// directories, PDF exports or base64 payloads.
package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrUnsupported reports an input the package cannot decode.
var ErrUnsupported = errors.New("unsupported input")

// Source yields one or more frames to analyse.
type Source interface {
	FrameCount() int
	FrameName(index int) string
	Frame(index int) (image.Image, error)
	Close() error
}

// Open picks a Source for path: a PDF, an image file or a directory of
// images.
func Open(path string, dpi int) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewFitzPDFSource(path, dpi)
	}
	return NewImageSource(path)
}

// FitzPDFSource renders the pages of a PDF, e.g. a screenshot exported
// to PDF by the OS print dialog.
type FitzPDFSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func NewFitzPDFSource(path string, dpi int) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if dpi <= 0 {
		dpi = 150
	}
	return &FitzPDFSource{doc: doc, path: path, dpi: dpi}, nil
}

func (f *FitzPDFSource) FrameCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) FrameName(index int) string {
	return fmt.Sprintf("%s#page=%d", filepath.Base(f.path), index+1)
}

// Frame renders page index. Each call opens its own document handle so
// pages can be rendered from several goroutines.
func (f *FitzPDFSource) Frame(index int) (image.Image, error) {
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(f.dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
