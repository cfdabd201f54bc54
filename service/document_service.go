package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	model "github.com/Itish41/EmployeeCounsel/models"
	"github.com/google/uuid"
)

// UploadInput is one file uploaded by a user.
type UploadInput struct {
	OwnerID     string
	SessionID   *string
	FileName    string
	ContentType string
	Content     []byte
	Kind        model.DocumentKind
	Source      string
}

// RegulationInput is one regulation added to the shared corpus.
type RegulationInput struct {
	Title    string
	FileName string
	Content  []byte
}

// DocumentService handles the upload, listing and removal of user documents
// and of regulations.
type DocumentService struct {
	lifecycle         *IndexLifecycleService
	userIndexID       string
	regulationIndexID string
	sessionTTL        time.Duration

	Repo  DocumentRepository
	Blobs BlobArchive
	Clock Clock

	// WaitForIndexing makes uploads block until indexing finishes.
	WaitForIndexing bool
}

// NewDocumentService initializes the service with the index lifecycle manager
// and the index ids documents are registered into.
func NewDocumentService(lifecycle *IndexLifecycleService, userIndexID, regulationIndexID string, sessionTTL time.Duration) *DocumentService {
	return &DocumentService{
		lifecycle:         lifecycle,
		userIndexID:       userIndexID,
		regulationIndexID: regulationIndexID,
		sessionTTL:        sessionTTL,
		Clock:             SystemClock,
	}
}

// Upload registers the file in the user index. Session documents get an
// expiresAt so GC reclaims them; permanent-library originals are archived.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (*model.IndexedDocument, error) {
	log.Printf("[Documents] upload %s for %s (%d bytes)", in.FileName, in.OwnerID, len(in.Content))

	attrs := model.Attributes{
		OwnerID:      in.OwnerID,
		DocumentKind: model.ParseDocumentKind(string(in.Kind)),
		Source:       in.Source,
	}
	if in.SessionID != nil && *in.SessionID != "" {
		attrs.SessionID = *in.SessionID
		exp := s.Clock.Now().Add(s.sessionTTL).Unix()
		attrs.ExpiresAt = &exp
	}

	input := RegisterInput{
		FileName:   in.FileName,
		Content:    in.Content,
		IndexID:    s.userIndexID,
		Attributes: attrs,
	}
	var (
		res RegisterResult
		err error
	)
	if s.WaitForIndexing {
		res, err = s.lifecycle.RegisterAndWait(ctx, input)
		if errors.Is(err, ErrIndexingTimeout) {
			log.Printf("[Documents] %s: %v", in.FileName, err)
			err = nil
		}
	} else {
		res, err = s.lifecycle.Register(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	doc := &model.IndexedDocument{
		ID:             uuid.NewString(),
		OwnerID:        in.OwnerID,
		DocumentKind:   attrs.DocumentKind,
		FileName:       in.FileName,
		RawFileRef:     res.RawFileRef,
		IndexID:        s.userIndexID,
		IndexEntryRef:  res.IndexEntryRef,
		IndexingStatus: res.Status,
		ExpiresAt:      model.ExpiresAtTime(attrs.ExpiresAt),
		Attributes:     attrs.ToMap(),
	}
	if attrs.SessionID != "" {
		doc.SessionID = in.SessionID
	}

	if doc.SessionID == nil && s.Blobs != nil {
		key := fmt.Sprintf("%s/%s%s", in.OwnerID, doc.ID, filepath.Ext(in.FileName))
		if err := s.Blobs.Put(ctx, key, in.ContentType, in.Content); err != nil {
			log.Printf("[Documents] failed to archive %s: %v", in.FileName, err)
		} else {
			doc.ArchiveKey = key
		}
	}

	if s.Repo != nil {
		if err := s.Repo.SaveDocument(ctx, doc); err != nil {
			log.Printf("[Documents] failed to save %s: %v", doc.ID, err)
			s.rollbackUpload(ctx, doc)
			return nil, fmt.Errorf("failed to save document: %w", err)
		}
	}
	return doc, nil
}

// rollbackUpload removes what Upload created before its row could be saved.
func (s *DocumentService) rollbackUpload(ctx context.Context, doc *model.IndexedDocument) {
	if err := s.lifecycle.Delete(ctx, doc.IndexID, doc.IndexEntryRef, doc.RawFileRef); err != nil {
		log.Printf("[Documents] cleanup of %s failed: %v", doc.RawFileRef, err)
	}
	if doc.ArchiveKey != "" && s.Blobs != nil {
		if err := s.Blobs.Remove(ctx, doc.ArchiveKey); err != nil {
			log.Printf("[Documents] cleanup of archived %s failed: %v", doc.ArchiveKey, err)
		}
	}
}

// Status refreshes the indexing status of one of the caller's documents.
func (s *DocumentService) Status(ctx context.Context, ownerID, documentID string) (*model.IndexedDocument, error) {
	doc, err := s.owned(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IndexingStatus.IsTerminal() {
		return doc, nil
	}

	status, err := s.lifecycle.CheckStatus(ctx, doc.IndexID, doc.IndexEntryRef)
	if err != nil {
		return nil, err
	}
	if status != doc.IndexingStatus {
		doc.IndexingStatus = status
		if err := s.Repo.UpdateDocumentStatus(ctx, doc.ID, status); err != nil {
			log.Printf("[Documents] failed to update status of %s: %v", doc.ID, err)
		}
	}
	return doc, nil
}

// DeleteDocument removes one of the caller's documents from the index, the
// raw file store, the archive and the database.
func (s *DocumentService) DeleteDocument(ctx context.Context, ownerID, documentID string) error {
	doc, err := s.owned(ctx, ownerID, documentID)
	if err != nil {
		return err
	}

	var errs []error
	if err := s.lifecycle.Delete(ctx, doc.IndexID, doc.IndexEntryRef, doc.RawFileRef); err != nil {
		errs = append(errs, err)
	}
	if doc.ArchiveKey != "" && s.Blobs != nil {
		if err := s.Blobs.Remove(ctx, doc.ArchiveKey); err != nil {
			errs = append(errs, fmt.Errorf("remove archived %s: %w", doc.ArchiveKey, err))
		}
	}
	if len(errs) > 0 {
		// Keep the row so the deletion can be retried.
		return errors.Join(errs...)
	}
	return s.Repo.DeleteDocument(ctx, doc.ID)
}

// ListDocuments returns the caller's documents, optionally limited to one
// session. Without a repository the index itself is listed and filtered.
func (s *DocumentService) ListDocuments(ctx context.Context, ownerID string, sessionID *string) ([]model.IndexedDocument, error) {
	if s.Repo != nil {
		return s.Repo.ListDocuments(ctx, ownerID, sessionID)
	}

	entries, err := s.lifecycle.ListEntries(ctx, s.userIndexID)
	if err != nil {
		return nil, err
	}
	filter := BuildFilter(ownerID, sessionID)
	docs := []model.IndexedDocument{}
	for _, doc := range entries {
		if MatchesFilter(filter, doc.Attributes) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// RegisterRegulation adds a regulation file to the regulation index, with
// attributes derived from its title.
func (s *DocumentService) RegisterRegulation(ctx context.Context, in RegulationInput) (*model.Regulation, error) {
	info := ParseRegulationInfo(in.Title)
	attrs := model.Attributes{
		OwnerID:          model.RegulationOwnerID,
		DocumentKind:     model.KindRegulation,
		Source:           model.RegulationOwnerID,
		RegulationType:   info.Type,
		RegulationNumber: info.Number,
		RegulationYear:   regulationYear(info.Number),
		Title:            in.Title,
	}

	res, err := s.lifecycle.Register(ctx, RegisterInput{
		FileName:   in.FileName,
		Content:    in.Content,
		IndexID:    s.regulationIndexID,
		Attributes: attrs,
	})
	if err != nil {
		return nil, err
	}

	reg := &model.Regulation{
		ID:               uuid.NewString(),
		Title:            in.Title,
		RegulationType:   info.Type,
		RegulationNumber: info.Number,
		RegulationYear:   attrs.RegulationYear,
		Category:         info.Category,
		RawFileRef:       res.RawFileRef,
		IndexID:          s.regulationIndexID,
		IndexEntryRef:    res.IndexEntryRef,
		Status:           res.Status,
	}
	if s.Repo != nil {
		if err := s.Repo.SaveRegulation(ctx, reg); err != nil {
			return nil, fmt.Errorf("failed to save regulation: %w", err)
		}
	}
	log.Printf("[Documents] registered regulation %q as %s %s (%s)", in.Title, info.Type, info.Number, info.Category)
	return reg, nil
}

func (s *DocumentService) owned(ctx context.Context, ownerID, documentID string) (*model.IndexedDocument, error) {
	if s.Repo == nil {
		return nil, ErrDocumentNotFound
	}
	doc, err := s.Repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return doc, nil
}

// MatchesFilter reports whether an attribute map satisfies every equality in
// the filter.
func MatchesFilter(filter model.Filter, attrs map[string]any) bool {
	ok := true
	filter.Walk(func(key, value string) {
		if v, present := attrs[key]; !present || fmt.Sprint(v) != value {
			ok = false
		}
	})
	return ok
}
