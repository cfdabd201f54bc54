package services

import (
	"context"
	"errors"
	"fmt"

	model "github.com/Itish41/EmployeeCounsel/models"
	"gorm.io/gorm"
)

// GormDocumentRepository stores documents, analyses and regulations in Postgres.
type GormDocumentRepository struct {
	db *gorm.DB
}

var _ DocumentRepository = (*GormDocumentRepository)(nil)

func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) SaveDocument(ctx context.Context, doc *model.IndexedDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *GormDocumentRepository) GetDocument(ctx context.Context, id string) (*model.IndexedDocument, error) {
	var doc model.IndexedDocument
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", id, err)
	}
	return &doc, nil
}

func (r *GormDocumentRepository) ListDocuments(ctx context.Context, ownerID string, sessionID *string) ([]model.IndexedDocument, error) {
	var docs []model.IndexedDocument
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if sessionID != nil && *sessionID != "" {
		q = q.Where("session_id = ?", *sessionID)
	}
	if err := q.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	return docs, nil
}

func (r *GormDocumentRepository) UpdateDocumentStatus(ctx context.Context, id string, status model.IndexingStatus) error {
	return r.db.WithContext(ctx).Model(&model.IndexedDocument{}).
		Where("id = ?", id).
		Update("indexing_status", status).Error
}

func (r *GormDocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.IndexedDocument{}, "id = ?", id).Error
}

func (r *GormDocumentRepository) DeleteDocumentByEntry(ctx context.Context, indexID, entryRef string) error {
	return r.db.WithContext(ctx).
		Where("index_id = ? AND index_entry_ref = ?", indexID, entryRef).
		Delete(&model.IndexedDocument{}).Error
}

func (r *GormDocumentRepository) SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *GormDocumentRepository) SaveRegulation(ctx context.Context, reg *model.Regulation) error {
	return r.db.WithContext(ctx).Create(reg).Error
}
