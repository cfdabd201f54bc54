package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	model "github.com/Itish41/EmployeeCounsel/models"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPollInterval = time.Second
	defaultMaxPolls     = 60
)

// RegisterInput is one file to upload and attach to an index.
type RegisterInput struct {
	FileName   string
	Content    []byte
	IndexID    string
	Attributes model.Attributes
}

// RegisterResult locates a registered file.
type RegisterResult struct {
	RawFileRef    string               `json:"raw_file_ref"`
	IndexEntryRef string               `json:"index_entry_ref"`
	Status        model.IndexingStatus `json:"status"`
}

// BatchRegisterResult is one element of a RegisterBatch outcome. Err is set
// only when Status is failed.
type BatchRegisterResult struct {
	RegisterResult
	Err error `json:"-"`
}

// IndexLifecycleService uploads files into retrieval indexes, tracks their
// indexing status, deletes them and reclaims expired ones.
type IndexLifecycleService struct {
	files FileStore
	index IndexStore

	// Repo, when set, is kept in step with GC deletions.
	Repo  DocumentRepository
	Clock Clock

	PollInterval time.Duration
	MaxPolls     int
	// BatchConcurrency caps RegisterBatch; 0 registers every input at once.
	BatchConcurrency int
}

func NewIndexLifecycleService(files FileStore, index IndexStore) *IndexLifecycleService {
	return &IndexLifecycleService{
		files:        files,
		index:        index,
		Clock:        SystemClock,
		PollInterval: defaultPollInterval,
		MaxPolls:     defaultMaxPolls,
	}
}

// Register uploads the raw file and attaches it to the index. It returns as
// soon as the attachment exists, usually still processing.
func (s *IndexLifecycleService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	fileRef, err := s.files.Upload(ctx, in.FileName, in.Content)
	if err != nil {
		return RegisterResult{}, providerError("upload "+in.FileName, err)
	}
	log.Printf("[Lifecycle] uploaded %s as %s", in.FileName, fileRef)

	entry, err := s.index.Attach(ctx, in.IndexID, fileRef, in.Attributes.ToMap())
	if err != nil {
		// Don't leave an orphaned raw file behind.
		if delErr := s.files.Delete(ctx, fileRef); delErr != nil {
			log.Printf("[Lifecycle] cleanup of %s failed: %v", fileRef, delErr)
		}
		return RegisterResult{RawFileRef: fileRef, Status: model.StatusFailed},
			providerError(fmt.Sprintf("attach %s to %s", fileRef, in.IndexID), err)
	}

	status := model.StatusProcessing
	if entry.Status != "" {
		status = normalizeStatus(entry.Status)
	}
	log.Printf("[Lifecycle] attached %s to %s (%s)", fileRef, in.IndexID, status)
	return RegisterResult{RawFileRef: fileRef, IndexEntryRef: entry.EntryRef, Status: status}, nil
}

// RegisterAndWait registers the file and then polls until indexing leaves
// processing. After MaxPolls polls it gives up with ErrIndexingTimeout and
// the last observed result.
func (s *IndexLifecycleService) RegisterAndWait(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	res, err := s.Register(ctx, in)
	if err != nil {
		return res, err
	}

	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxPolls := s.MaxPolls
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}

	for polls := 0; !res.Status.IsTerminal(); polls++ {
		if polls >= maxPolls {
			return res, fmt.Errorf("%s still processing after %d polls: %w", res.IndexEntryRef, polls, ErrIndexingTimeout)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return res, ctx.Err()
		case <-timer.C:
		}

		status, err := s.CheckStatus(ctx, in.IndexID, res.IndexEntryRef)
		if err != nil {
			return res, err
		}
		res.Status = status
	}
	return res, nil
}

// UpdateAttributes replaces the attribute set of an attachment.
func (s *IndexLifecycleService) UpdateAttributes(ctx context.Context, indexID, entryRef string, attrs model.Attributes) error {
	if err := s.index.UpdateAttributes(ctx, indexID, entryRef, attrs.ToMap()); err != nil {
		return providerError("update attributes of "+entryRef, err)
	}
	return nil
}

// CheckStatus reports the normalized indexing status of an attachment.
func (s *IndexLifecycleService) CheckStatus(ctx context.Context, indexID, entryRef string) (model.IndexingStatus, error) {
	raw, err := s.index.Status(ctx, indexID, entryRef)
	if err != nil {
		return "", providerError("status of "+entryRef, err)
	}
	return normalizeStatus(raw), nil
}

func normalizeStatus(raw string) model.IndexingStatus {
	switch raw {
	case "in_progress", string(model.StatusProcessing):
		return model.StatusProcessing
	case string(model.StatusCompleted):
		return model.StatusCompleted
	case string(model.StatusCancelled):
		return model.StatusCancelled
	case string(model.StatusFailed):
		return model.StatusFailed
	default:
		log.Printf("[Lifecycle] unknown indexing status %q, treating as failed", raw)
		return model.StatusFailed
	}
}

// Delete removes the index attachment and the raw file. Both removals are
// attempted; any failure is returned. A part the provider no longer knows
// counts as removed, so a partially failed delete can be retried.
func (s *IndexLifecycleService) Delete(ctx context.Context, indexID, entryRef, rawFileRef string) error {
	var errs []error
	if err := s.index.Detach(ctx, indexID, entryRef); err != nil {
		if errors.Is(err, ErrRemoteNotFound) {
			log.Printf("[Lifecycle] %s already detached from %s", entryRef, indexID)
		} else {
			errs = append(errs, providerError(fmt.Sprintf("detach %s from %s", entryRef, indexID), err))
		}
	}
	if rawFileRef == "" {
		errs = append(errs, fmt.Errorf("delete raw file of %s: no file ref", entryRef))
	} else if err := s.files.Delete(ctx, rawFileRef); err != nil {
		if errors.Is(err, ErrRemoteNotFound) {
			log.Printf("[Lifecycle] file %s already deleted", rawFileRef)
		} else {
			errs = append(errs, providerError("delete file "+rawFileRef, err))
		}
	}
	return errors.Join(errs...)
}

// ListEntries returns every attachment of the index in provider order.
func (s *IndexLifecycleService) ListEntries(ctx context.Context, indexID string) ([]model.IndexedDocument, error) {
	entries, err := s.index.List(ctx, indexID)
	if err != nil {
		return nil, providerError("list "+indexID, err)
	}

	docs := make([]model.IndexedDocument, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, documentFromEntry(indexID, e))
	}
	return docs, nil
}

func documentFromEntry(indexID string, e IndexEntry) model.IndexedDocument {
	attrs, err := model.AttributesFromMap(e.Attributes)
	if err != nil {
		log.Printf("[Lifecycle] entry %s: %v", e.EntryRef, err)
	}
	doc := model.IndexedDocument{
		OwnerID:        attrs.OwnerID,
		DocumentKind:   attrs.DocumentKind,
		RawFileRef:     e.FileRef,
		IndexID:        indexID,
		IndexEntryRef:  e.EntryRef,
		IndexingStatus: normalizeStatus(e.Status),
		ExpiresAt:      model.ExpiresAtTime(attrs.ExpiresAt),
		Attributes:     e.Attributes,
	}
	if attrs.SessionID != "" {
		sessionID := attrs.SessionID
		doc.SessionID = &sessionID
	}
	return doc
}

// SweepExpired deletes every entry of the index whose expiresAt lies strictly
// before now, in listing order. Entries without expiresAt never expire. Only
// a listing failure is returned as an error; per-entry failures are counted.
func (s *IndexLifecycleService) SweepExpired(ctx context.Context, indexID string) (model.SweepResult, error) {
	res := model.SweepResult{IndexID: indexID}

	entries, err := s.index.List(ctx, indexID)
	if err != nil {
		return res, providerError("list "+indexID, err)
	}

	now := s.Clock.Now()
	for _, e := range entries {
		res.Scanned++

		raw, ok := e.Attributes[model.AttrExpiresAt]
		if !ok || raw == nil {
			continue
		}
		expiresAt, err := model.ParseExpiresAt(raw)
		if err != nil {
			log.Printf("[GC] %s: skipping entry %s: %v", indexID, e.EntryRef, err)
			res.Skipped++
			continue
		}
		if !time.Unix(expiresAt, 0).Before(now) {
			continue
		}

		if err := s.Delete(ctx, indexID, e.EntryRef, e.FileRef); err != nil {
			log.Printf("[GC] %s: failed to delete entry %s: %v", indexID, e.EntryRef, err)
			res.Errors++
			continue
		}
		res.Deleted++

		if s.Repo != nil {
			if err := s.Repo.DeleteDocumentByEntry(ctx, indexID, e.EntryRef); err != nil {
				log.Printf("[GC] %s: entry %s deleted but its record remains: %v", indexID, e.EntryRef, err)
			}
		}
	}

	log.Printf("[GC] %s: scanned=%d deleted=%d errors=%d skipped=%d",
		indexID, res.Scanned, res.Deleted, res.Errors, res.Skipped)
	return res, nil
}

// RegisterBatch registers every input concurrently and returns one result per
// input, in input order. Failures become failed results; nothing is dropped.
func (s *IndexLifecycleService) RegisterBatch(ctx context.Context, inputs []RegisterInput) []BatchRegisterResult {
	results := make([]BatchRegisterResult, len(inputs))

	var g errgroup.Group
	if s.BatchConcurrency > 0 {
		g.SetLimit(s.BatchConcurrency)
	}

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			res, err := s.Register(ctx, in)
			if err != nil {
				log.Printf("[Lifecycle] batch item %d (%s) failed: %v", i, in.FileName, err)
				res.Status = model.StatusFailed
				results[i] = BatchRegisterResult{RegisterResult: res, Err: err}
				return nil
			}
			results[i] = BatchRegisterResult{RegisterResult: res}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
