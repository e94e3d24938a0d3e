package pdf

import (
	"context"
	"sync"

	"docgraph/pkg/common"
	"docgraph/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// PDFLoader extracts the text content of PDF files. The raw bytes come
// from the wrapped loader, so the PDF itself may live on disk or in object
// storage. Extracted text is cached per file.
type PDFLoader struct {
	loader loader.FileLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFLoader creates a PDF loader that extracts text from PDF content
// retrieved through the given inner loader.
func NewPDFLoader(inner loader.FileLoader) *PDFLoader {
	return &PDFLoader{
		loader: inner,
		cache:  make(map[string][]byte),
	}
}

// GetFileText extracts the plain text of a PDF file. Page boundaries are
// preserved as form feed characters so callers can recover per-page
// structure. Results are cached.
func (l *PDFLoader) GetFileText(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}

		text, err := parsePDF(content)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = text
		l.cacheMu.Unlock()

		return text, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// ExtractElements extracts the page elements of a PDF file, ready for
// chunking. Pages are numbered from 1 in reading order.
func (l *PDFLoader) ExtractElements(ctx context.Context, file loader.DocumentFile) ([]common.Element, error) {
	text, err := l.GetFileText(ctx, file)
	if err != nil {
		return nil, err
	}
	return splitElements(string(text)), nil
}
