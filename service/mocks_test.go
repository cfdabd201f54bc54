package services

import (
	"context"
	"sync"
	"time"

	model "github.com/Itish41/EmployeeCounsel/models"
	"github.com/stretchr/testify/mock"
)

// FixedTime is the wall clock used across tests.
var FixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// steppingClock returns the given instants in order, then repeats the last.
type steppingClock struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return t
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Upload(ctx context.Context, fileName string, content []byte) (string, error) {
	args := m.Called(ctx, fileName, content)
	return args.String(0), args.Error(1)
}

func (m *MockFileStore) Delete(ctx context.Context, fileRef string) error {
	args := m.Called(ctx, fileRef)
	return args.Error(0)
}

type MockIndexStore struct {
	mock.Mock
}

func (m *MockIndexStore) Attach(ctx context.Context, indexID, fileRef string, attrs map[string]any) (IndexEntry, error) {
	args := m.Called(ctx, indexID, fileRef, attrs)
	return args.Get(0).(IndexEntry), args.Error(1)
}

func (m *MockIndexStore) Status(ctx context.Context, indexID, entryRef string) (string, error) {
	args := m.Called(ctx, indexID, entryRef)
	return args.String(0), args.Error(1)
}

func (m *MockIndexStore) UpdateAttributes(ctx context.Context, indexID, entryRef string, attrs map[string]any) error {
	args := m.Called(ctx, indexID, entryRef, attrs)
	return args.Error(0)
}

func (m *MockIndexStore) Detach(ctx context.Context, indexID, entryRef string) error {
	args := m.Called(ctx, indexID, entryRef)
	return args.Error(0)
}

func (m *MockIndexStore) List(ctx context.Context, indexID string) ([]IndexEntry, error) {
	args := m.Called(ctx, indexID)
	return args.Get(0).([]IndexEntry), args.Error(1)
}

// fakeResponses records every request and replies with a canned body.
type fakeResponses struct {
	mu       sync.Mutex
	requests []model.ProviderRequest
	body     []byte
	err      error
}

func (f *fakeResponses) CreateResponse(ctx context.Context, req model.ProviderRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.body, f.err
}

// memRepo is an in-memory DocumentRepository.
type memRepo struct {
	mu          sync.Mutex
	docs        map[string]*model.IndexedDocument
	analyses    []*model.AnalysisRecord
	regulations []*model.Regulation
	deleted     []string
}

func newMemRepo(docs ...*model.IndexedDocument) *memRepo {
	r := &memRepo{docs: map[string]*model.IndexedDocument{}}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return r
}

func (r *memRepo) SaveDocument(ctx context.Context, doc *model.IndexedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *memRepo) GetDocument(ctx context.Context, id string) (*model.IndexedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *memRepo) ListDocuments(ctx context.Context, ownerID string, sessionID *string) ([]model.IndexedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.IndexedDocument
	for _, d := range r.docs {
		if d.OwnerID != ownerID {
			continue
		}
		if sessionID != nil && (d.SessionID == nil || *d.SessionID != *sessionID) {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *memRepo) UpdateDocumentStatus(ctx context.Context, id string, status model.IndexingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.docs[id]; ok {
		d.IndexingStatus = status
	}
	return nil
}

func (r *memRepo) DeleteDocument(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memRepo) DeleteDocumentByEntry(ctx context.Context, indexID, entryRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, d := range r.docs {
		if d.IndexID == indexID && d.IndexEntryRef == entryRef {
			delete(r.docs, id)
			r.deleted = append(r.deleted, id)
		}
	}
	return nil
}

func (r *memRepo) SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses = append(r.analyses, rec)
	return nil
}

func (r *memRepo) SaveRegulation(ctx context.Context, reg *model.Regulation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regulations = append(r.regulations, reg)
	return nil
}

func strPtr(s string) *string { return &s }
