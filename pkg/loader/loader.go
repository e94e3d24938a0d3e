package loader

import (
	"context"
)

// DocumentFile represents a source document to ingest. The actual file
// content is retrieved via the associated FileLoader, so the same value
// works for local files and object storage keys alike.
type DocumentFile struct {
	ID       string
	FilePath string
	Title    string
	Loader   FileLoader
}

// NewDocumentFileParams defines the input parameters for creating a new
// DocumentFile instance.
type NewDocumentFileParams struct {
	ID       string
	FilePath string
	Title    string
	Loader   FileLoader
}

// NewDocumentFile creates a DocumentFile using the provided parameters.
// When Title is empty the file id is used as display title.
func NewDocumentFile(params NewDocumentFileParams) DocumentFile {
	title := params.Title
	if title == "" {
		title = params.ID
	}
	return DocumentFile{
		ID:       params.ID,
		FilePath: params.FilePath,
		Title:    title,
		Loader:   params.Loader,
	}
}

// GetText retrieves the raw content of the file using its Loader.
func (f *DocumentFile) GetText(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileText(ctx, *f)
}

// FileLoader defines the interface for loading the contents of a
// DocumentFile. Implementations may load files from disk, object storage,
// or other sources.
type FileLoader interface {
	GetFileText(ctx context.Context, file DocumentFile) ([]byte, error)
}

// CacheKey derives the cache identity of a file for loader-level caches.
func CacheKey(file DocumentFile) string {
	return file.ID + ":" + file.FilePath
}
