package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	model "github.com/Itish41/EmployeeCounsel/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answerBody wraps text in a minimal provider response.
func answerBody(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id": "resp_analysis",
		"output": []any{
			map[string]any{"type": "message", "content": []any{
				map[string]any{"type": "output_text", "text": text, "annotations": []any{}},
			}},
		},
		"usage": map[string]any{"input_tokens": 100, "output_tokens": 50, "total_tokens": 150},
	})
	require.NoError(t, err)
	return body
}

func analysisJSON(t *testing.T) string {
	t.Helper()
	f1 := validFinding("f1")
	f1["references"] = []any{
		map[string]any{"type": "stored_regulation", "source_id": "uu-13", "title": "UU No. 13/2003 tentang Ketenagakerjaan", "excerpt": "Pasal 78", "regulation_file_ref": "file_uu13"},
		map[string]any{"type": "web_search", "url": "https://jdih.kemnaker.go.id/pp35", "title": "PP 35/2021", "snippet": "overtime", "domain": "jdih.kemnaker.go.id"},
	}
	f2 := validFinding("f2")
	f2["references"] = []any{
		map[string]any{"type": "stored_regulation", "source_id": "uu-13", "title": "UU No. 13/2003 tentang Ketenagakerjaan", "excerpt": "Pasal 79", "regulation_file_ref": "file_uu13"},
	}
	data, err := json.Marshal(candidate(f1, f2))
	require.NoError(t, err)
	return string(data)
}

type fakeArchive struct {
	stored []model.AnalysisRecord
	err    error
}

func (a *fakeArchive) Store(ctx context.Context, rec model.AnalysisRecord, result *model.AnalysisResult) error {
	a.stored = append(a.stored, rec)
	return a.err
}

func (a *fakeArchive) Search(ctx context.Context, query string, filter model.Filter, limit int) ([]map[string]any, error) {
	return []map[string]any{{"query": query, "filter": filter, "limit": limit}}, nil
}

func newTestAnalysis(body []byte) (*AnalysisService, *fakeResponses, *memRepo) {
	client := &fakeResponses{body: body}
	svc := NewAnalysisService(NewRetrievalService(client, "gpt-default"), "vs_regulations", 8)
	repo := newMemRepo(&model.IndexedDocument{
		ID: "doc-1", OwnerID: "user-1", RawFileRef: "file_contract", DocumentKind: model.KindContract,
	})
	svc.Repo = repo
	return svc, client, repo
}

func TestAnalyze_Structured(t *testing.T) {
	for _, wrap := range []struct{ name, prefix, suffix string }{
		{"plain", "", ""},
		{"code fence", "```json\n", "\n```"},
	} {
		t.Run(wrap.name, func(t *testing.T) {
			svc, client, repo := newTestAnalysis(answerBody(t, wrap.prefix+analysisJSON(t)+wrap.suffix))
			archive := &fakeArchive{}
			svc.Archive = archive

			out, err := svc.Analyze(context.Background(), AnalyzeRequest{OwnerID: "user-1", DocumentID: "doc-1"})

			require.NoError(t, err)
			assert.True(t, out.Structured)
			assert.Empty(t, out.Defects)
			require.Len(t, out.Analysis.Findings, 2)
			assert.Equal(t, []string{"document_search"}, out.Analysis.SearchMethodsUsed)

			require.Len(t, out.References.StoredRegulations, 1)
			assert.Equal(t, []string{"f1", "f2"}, out.References.StoredRegulations[0].UsedInFindings)
			assert.Equal(t, "labor-law", out.References.StoredRegulations[0].RegulationCategory)
			require.Len(t, out.References.WebSources, 1)

			require.Len(t, client.requests, 1)
			req := client.requests[0]
			assert.Equal(t, []string{"file_contract"}, req.AttachedFileRefs)
			require.Len(t, req.Tools, 2)
			assert.Equal(t, []string{"vs_regulations"}, req.Tools[0].IndexIDs)
			assert.Nil(t, req.Tools[0].Filter)
			assert.Equal(t, 8, req.Tools[0].MaxResults)
			assert.Equal(t, model.ToolWebSearch, req.Tools[1].Kind)
			require.NotNil(t, req.ResponseFormat)

			require.Len(t, repo.analyses, 1)
			assert.True(t, repo.analyses[0].Structured)
			assert.Equal(t, "doc-1", repo.analyses[0].DocumentID)
			assert.Equal(t, 150, repo.analyses[0].TotalTokens)
			assert.Len(t, archive.stored, 1)
		})
	}
}

func TestAnalyze_FallsBackToNarrative(t *testing.T) {
	svc, _, repo := newTestAnalysis(answerBody(t, "The contract looks mostly fine, but overtime is unclear."))
	archive := &fakeArchive{}
	svc.Archive = archive

	out, err := svc.Analyze(context.Background(), AnalyzeRequest{OwnerID: "user-1", DocumentID: "doc-1"})

	require.NoError(t, err)
	assert.False(t, out.Structured)
	assert.Nil(t, out.Analysis)
	assert.NotEmpty(t, out.Defects)
	assert.Contains(t, out.Defects[0], "not valid JSON")
	assert.Equal(t, "The contract looks mostly fine, but overtime is unclear.", out.RawAnswer)

	require.Len(t, repo.analyses, 1)
	assert.False(t, repo.analyses[0].Structured)
	assert.Empty(t, archive.stored)
}

func TestAnalyze_ShapeDefects(t *testing.T) {
	bad := validFinding("f1")
	delete(bad, "recommendation")
	bad["priority"] = "urgent"
	data, err := json.Marshal(candidate(bad))
	require.NoError(t, err)

	svc, _, _ := newTestAnalysis(answerBody(t, string(data)))
	out, err := svc.Analyze(context.Background(), AnalyzeRequest{OwnerID: "user-1", DocumentID: "doc-1"})

	require.NoError(t, err)
	assert.False(t, out.Structured)
	assert.Len(t, out.Defects, 2)
}

func TestAnalyze_ArchiveFailureIsNotFatal(t *testing.T) {
	svc, _, _ := newTestAnalysis(answerBody(t, analysisJSON(t)))
	svc.Archive = &fakeArchive{err: errors.New("elasticsearch down")}

	out, err := svc.Analyze(context.Background(), AnalyzeRequest{OwnerID: "user-1", DocumentID: "doc-1"})

	require.NoError(t, err)
	assert.True(t, out.Structured)
}

func TestAnalyze_Errors(t *testing.T) {
	t.Run("forbidden", func(t *testing.T) {
		svc, client, _ := newTestAnalysis(answerBody(t, "{}"))
		_, err := svc.Analyze(context.Background(), AnalyzeRequest{OwnerID: "intruder", DocumentID: "doc-1"})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Empty(t, client.requests)
	})

	t.Run("unknown document", func(t *testing.T) {
		svc, _, _ := newTestAnalysis(answerBody(t, "{}"))
		_, err := svc.Analyze(context.Background(), AnalyzeRequest{OwnerID: "user-1", DocumentID: "doc-404"})
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("provider failure", func(t *testing.T) {
		svc, client, repo := newTestAnalysis(nil)
		client.err = errors.New("timeout")
		_, err := svc.Analyze(context.Background(), AnalyzeRequest{OwnerID: "user-1", DocumentID: "doc-1"})
		assert.ErrorIs(t, err, ErrProviderFailure)
		assert.Empty(t, repo.analyses)
	})

	t.Run("no repository uses the raw file ref", func(t *testing.T) {
		svc, client, _ := newTestAnalysis(answerBody(t, "narrative"))
		svc.Repo = nil
		_, err := svc.Analyze(context.Background(), AnalyzeRequest{OwnerID: "user-1", RawFileRef: "file_x", DocumentKind: model.KindPayslip})
		require.NoError(t, err)
		assert.Equal(t, []string{"file_x"}, client.requests[0].AttachedFileRefs)

		_, err = svc.Analyze(context.Background(), AnalyzeRequest{OwnerID: "user-1"})
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}

func TestSearchAnalyses(t *testing.T) {
	svc, _, _ := newTestAnalysis(nil)

	_, err := svc.SearchAnalyses(context.Background(), "user-1", nil, "overtime", 5)
	assert.Error(t, err)

	svc.Archive = &fakeArchive{}
	hits, err := svc.SearchAnalyses(context.Background(), "user-1", strPtr("s1"), "overtime", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, BuildFilter("user-1", strPtr("s1")), hits[0]["filter"])
}

func TestDecodeAnalysis_LegacyToolsUsed(t *testing.T) {
	data, err := json.Marshal(map[string]any{
		"findings":   []any{validFinding("f1")},
		"tools_used": []any{"web_search"},
	})
	require.NoError(t, err)

	got, defects := decodeAnalysis(string(data))

	require.Empty(t, defects)
	assert.Equal(t, []string{"web_search"}, got.SearchMethodsUsed)
}
