// Package pdfload extracts text from PDF files page by page so downstream
// chunks can carry their source page number.
package pdfload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"docchat/internal/util"

	"github.com/ledongthuc/pdf"
)

var ErrNoExtractableText = errors.New("no extractable text found in PDF")

// Document is the raw loaded source before chunking. Pages holds the
// sanitized text of each page in order; entries may be empty for pages
// without extractable text.
type Document struct {
	Filename    string
	ContentHash string
	FileSize    int64
	PageCount   int
	Pages       []string
}

type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// Load opens the PDF at path and extracts per-page text. The content hash is
// computed over the file bytes, not the extracted text, so two byte-identical
// files always collide regardless of extractor quirks.
func (l *Loader) Load(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("stat pdf: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf: %w", err)
	}
	hash, err := util.SHA256HexFromReader(f)
	_ = f.Close()
	if err != nil {
		return Document{}, fmt.Errorf("hash pdf: %w", err)
	}

	rf, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("read pdf: %w", err)
	}
	defer rf.Close()

	total := r.NumPage()
	if total == 0 {
		return Document{}, fmt.Errorf("%s: %w", path, ErrNoExtractableText)
	}

	pages := make([]string, 0, total)
	any := false
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single damaged page does not kill the document.
			pages = append(pages, "")
			continue
		}
		text = util.SanitizeText(text)
		pages = append(pages, text)
		if text != "" {
			any = true
		}
	}
	if !any {
		return Document{}, fmt.Errorf("%s: %w", path, ErrNoExtractableText)
	}

	return Document{
		Filename:    filepath.Base(path),
		ContentHash: hash,
		FileSize:    info.Size(),
		PageCount:   total,
		Pages:       pages,
	}, nil
}
