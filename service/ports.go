package services

import (
	"context"
	"time"

	model "github.com/Itish41/EmployeeCounsel/models"
)

// FileStore holds raw uploaded files. The returned ref is what indexes and
// providers use to address the file.
type FileStore interface {
	Upload(ctx context.Context, fileName string, content []byte) (string, error)
	Delete(ctx context.Context, fileRef string) error
}

// IndexEntry is one file attachment as reported by an IndexStore.
type IndexEntry struct {
	EntryRef   string
	FileRef    string
	Status     string
	Attributes map[string]any
}

// IndexStore manages file attachments inside a hosted retrieval index.
// Status strings are provider-native; see normalizeStatus.
type IndexStore interface {
	Attach(ctx context.Context, indexID, fileRef string, attrs map[string]any) (IndexEntry, error)
	Status(ctx context.Context, indexID, entryRef string) (string, error)
	UpdateAttributes(ctx context.Context, indexID, entryRef string, attrs map[string]any) error
	Detach(ctx context.Context, indexID, entryRef string) error
	// List returns every attachment of the index, following pagination.
	List(ctx context.Context, indexID string) ([]IndexEntry, error)
}

// ResponsesClient issues one retrieval-augmented generation call and returns
// the raw provider response body.
type ResponsesClient interface {
	CreateResponse(ctx context.Context, req model.ProviderRequest) ([]byte, error)
}

// DocumentRepository persists document and analysis rows.
type DocumentRepository interface {
	SaveDocument(ctx context.Context, doc *model.IndexedDocument) error
	GetDocument(ctx context.Context, id string) (*model.IndexedDocument, error)
	ListDocuments(ctx context.Context, ownerID string, sessionID *string) ([]model.IndexedDocument, error)
	UpdateDocumentStatus(ctx context.Context, id string, status model.IndexingStatus) error
	DeleteDocument(ctx context.Context, id string) error
	DeleteDocumentByEntry(ctx context.Context, indexID, entryRef string) error
	SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) error
	SaveRegulation(ctx context.Context, reg *model.Regulation) error
}

// AnalysisArchive keeps searchable copies of finished analyses.
type AnalysisArchive interface {
	Store(ctx context.Context, rec model.AnalysisRecord, result *model.AnalysisResult) error
	Search(ctx context.Context, query string, filter model.Filter, limit int) ([]map[string]any, error)
}

// BlobArchive keeps originals of permanent-library documents.
type BlobArchive interface {
	Put(ctx context.Context, key, contentType string, content []byte) error
	Remove(ctx context.Context, key string) error
}

// Clock abstracts the wall clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads time.Now.
var SystemClock Clock = systemClock{}
