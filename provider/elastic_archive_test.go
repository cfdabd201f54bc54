package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	model "github.com/Itish41/EmployeeCounsel/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter model.Filter
		want   string
	}{
		{
			name:   "owner only",
			filter: model.Eq("ownerId", "user-1"),
			want:   `{"term":{"ownerId":"user-1"}}`,
		},
		{
			name:   "owner and session",
			filter: model.And(model.Eq("ownerId", "user-1"), model.Eq("sessionId", "s1")),
			want:   `{"bool":{"filter":[{"term":{"ownerId":"user-1"}},{"term":{"sessionId":"s1"}}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(FilterQuery(tt.filter))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestSearchBody(t *testing.T) {
	filter := model.Eq("ownerId", "user-1")

	t.Run("full text", func(t *testing.T) {
		got, err := json.Marshal(searchBody("overtime", filter, 5))
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"size": 5,
			"query": {"bool": {
				"must": [{"multi_match": {"query": "overtime", "fields": ["summary", "findings_text", "regulations"]}}],
				"filter": [{"term": {"ownerId": "user-1"}}]
			}},
			"sort": [{"_score": "desc"}, {"created_at": "desc"}]
		}`, string(got))
	})

	t.Run("blank query lists everything", func(t *testing.T) {
		body := searchBody("  ", filter, 0)
		assert.Equal(t, 10, body["size"])
		must := body["query"].(map[string]any)["bool"].(map[string]any)["must"].([]map[string]any)
		assert.Contains(t, must[0], "match_all")
	})
}

func TestArchiveDocument(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := model.AnalysisRecord{
		ID: "rec-1", DocumentID: "doc-1", OwnerID: "user-1", SessionID: strPtr("s1"), CreatedAt: created,
	}
	result := &model.AnalysisResult{
		Summary: "Two issues.",
		Findings: []model.AnalysisFinding{
			{ID: "f1", Title: "Unpaid overtime", Explanation: "e1", Recommendation: "r1", SeverityScore: 0.6,
				References: []model.Reference{model.NewStoredRegulationReference(model.StoredRegulationReference{Title: "UU No. 13/2003"})}},
			{ID: "f2", Title: "Short notice", Explanation: "e2", Recommendation: "r2", SeverityScore: 0.9},
		},
	}

	doc := archiveDocument(rec, result)

	assert.Equal(t, "user-1", doc["ownerId"])
	assert.Equal(t, "s1", doc["sessionId"])
	assert.Equal(t, "rec-1", doc["record_id"])
	assert.Equal(t, 0.9, doc["max_severity"])
	assert.Equal(t, "UU No. 13/2003", doc["regulations"])
	assert.Equal(t, "Unpaid overtime\ne1\nr1\nShort notice\ne2\nr2", doc["findings_text"])
	assert.Equal(t, "Two issues.", doc["summary"])
	assert.Equal(t, created, doc["created_at"])
	assert.Len(t, doc["findings"], 2)

	noSession := archiveDocument(model.AnalysisRecord{ID: "rec-2", OwnerID: "user-1"}, nil)
	assert.NotContains(t, noSession, "sessionId")
	assert.NotContains(t, noSession, "summary")
}

func fakeElastic(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) *ElasticAnalysisArchive {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r, body)
	}))
	t.Cleanup(srv.Close)

	es, err := NewElasticClient(srv.URL)
	require.NoError(t, err)
	return NewElasticAnalysisArchive(es, "analyses")
}

func TestElasticArchive_StoreAndSearch(t *testing.T) {
	var indexed, searched []byte
	var indexPath string
	archive := fakeElastic(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		switch r.URL.Path {
		case "/analyses/_doc/rec-1":
			indexPath = r.URL.Path
			indexed = body
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"_id":"rec-1","result":"created"}`)
		case "/analyses/_search":
			searched = body
			_, _ = io.WriteString(w, `{"hits":{"hits":[{"_source":{"record_id":"rec-1","summary":"Two issues."}}]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{}`)
		}
	})

	err := archive.Store(context.Background(), model.AnalysisRecord{ID: "rec-1", OwnerID: "user-1"}, &model.AnalysisResult{Summary: "Two issues."})
	require.NoError(t, err)
	assert.Equal(t, "/analyses/_doc/rec-1", indexPath)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(indexed, &doc))
	assert.Equal(t, "user-1", doc["ownerId"])

	hits, err := archive.Search(context.Background(), "issues", model.Eq("ownerId", "user-1"), 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "rec-1", hits[0]["record_id"])

	var query map[string]any
	require.NoError(t, json.Unmarshal(searched, &query))
	assert.Equal(t, float64(3), query["size"])
}

func TestElasticArchive_EnsureIndex(t *testing.T) {
	t.Run("creates a missing index", func(t *testing.T) {
		var created bool
		archive := fakeElastic(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
			switch r.Method {
			case http.MethodHead:
				w.WriteHeader(http.StatusNotFound)
			case http.MethodPut:
				created = true
				assert.Contains(t, string(body), `"keyword"`)
				_, _ = io.WriteString(w, `{"acknowledged":true}`)
			}
		})

		require.NoError(t, archive.EnsureIndex(context.Background()))
		assert.True(t, created)
	})

	t.Run("leaves an existing index alone", func(t *testing.T) {
		archive := fakeElastic(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
			if r.Method != http.MethodHead {
				t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			}
		})

		require.NoError(t, archive.EnsureIndex(context.Background()))
	})
}

func TestElasticArchive_SearchError(t *testing.T) {
	archive := fakeElastic(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"parsing_exception"}}`)
	})

	_, err := archive.Search(context.Background(), "x", model.Eq("ownerId", "u"), 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "elasticsearch search failed")
}

func strPtr(s string) *string { return &s }
