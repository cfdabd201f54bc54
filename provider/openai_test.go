package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	model "github.com/Itish41/EmployeeCounsel/models"
	services "github.com/Itish41/EmployeeCounsel/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
	Beta   string
	Auth   string
}

// fakeOpenAI records every call and answers from a route table keyed by
// "METHOD /path".
func fakeOpenAI(t *testing.T, routes map[string]func(r *http.Request) (int, string)) (*OpenAIStore, *[]recordedRequest) {
	t.Helper()
	var calls []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Beta:   r.Header.Get("OpenAI-Beta"),
			Auth:   r.Header.Get("Authorization"),
		}
		if r.Header.Get("Content-Type") == "application/json" {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &rec.Body)
			}
		}
		calls = append(calls, rec)

		handler, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			http.Error(w, `{"error":{"message":"no route"}}`, http.StatusNotFound)
			return
		}
		status, body := handler(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewOpenAIStore("sk-test", srv.URL+"/", srv.Client()), &calls
}

func reply(status int, body string) func(*http.Request) (int, string) {
	return func(*http.Request) (int, string) { return status, body }
}

func TestOpenAIStore_Files(t *testing.T) {
	store, calls := fakeOpenAI(t, map[string]func(*http.Request) (int, string){
		"POST /files":            reply(200, `{"id":"file_abc","object":"file","purpose":"assistants"}`),
		"DELETE /files/file_abc": reply(200, `{"id":"file_abc","object":"file","deleted":true}`),
	})

	ref, err := store.Upload(context.Background(), "contract.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "file_abc", ref)

	require.NoError(t, store.Delete(context.Background(), "file_abc"))
	require.Len(t, *calls, 2)
	assert.Equal(t, "Bearer sk-test", (*calls)[0].Auth)
}

func TestOpenAIStore_AttachAndStatus(t *testing.T) {
	store, calls := fakeOpenAI(t, map[string]func(*http.Request) (int, string){
		"POST /vector_stores/vs_user/files": reply(200,
			`{"id":"file_abc","object":"vector_store.file","status":"in_progress","attributes":{"ownerId":"user-1"}}`),
		"GET /vector_stores/vs_user/files/file_abc": reply(200,
			`{"id":"file_abc","object":"vector_store.file","status":"completed"}`),
		"DELETE /vector_stores/vs_user/files/file_abc": reply(200,
			`{"id":"file_abc","object":"vector_store.file.deleted","deleted":true}`),
	})

	entry, err := store.Attach(context.Background(), "vs_user", "file_abc", map[string]any{"ownerId": "user-1", "expiresAt": 1700000000})
	require.NoError(t, err)
	assert.Equal(t, "file_abc", entry.EntryRef)
	assert.Equal(t, "file_abc", entry.FileRef)
	assert.Equal(t, "in_progress", entry.Status)
	assert.Equal(t, map[string]any{"ownerId": "user-1"}, entry.Attributes)

	attach := (*calls)[0]
	assert.Equal(t, "assistants=v2", attach.Beta)
	assert.Equal(t, "file_abc", attach.Body["file_id"])
	assert.Equal(t, map[string]any{"ownerId": "user-1", "expiresAt": float64(1700000000)}, attach.Body["attributes"])

	status, err := store.Status(context.Background(), "vs_user", "file_abc")
	require.NoError(t, err)
	assert.Equal(t, "completed", status)

	require.NoError(t, store.Detach(context.Background(), "vs_user", "file_abc"))
}

func TestOpenAIStore_UpdateAttributes(t *testing.T) {
	store, calls := fakeOpenAI(t, map[string]func(*http.Request) (int, string){
		"POST /vector_stores/vs_user/files/file_abc": reply(200, `{"id":"file_abc"}`),
	})

	err := store.UpdateAttributes(context.Background(), "vs_user", "file_abc", map[string]any{"sessionId": "s1"})

	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.Equal(t, map[string]any{"attributes": map[string]any{"sessionId": "s1"}}, (*calls)[0].Body)
}

func TestOpenAIStore_ListPaginates(t *testing.T) {
	store, calls := fakeOpenAI(t, map[string]func(*http.Request) (int, string){
		"GET /vector_stores/vs_user/files": func(r *http.Request) (int, string) {
			if r.URL.Query().Get("after") == "" {
				return 200, `{"data":[{"id":"file_1","status":"completed","attributes":{"expiresAt":1}},{"id":"file_2","status":"completed"}],"has_more":true,"last_id":"file_2"}`
			}
			return 200, `{"data":[{"id":"file_3","status":"in_progress"}],"has_more":false,"last_id":"file_3"}`
		},
	})

	entries, err := store.List(context.Background(), "vs_user")

	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "file_1", entries[0].EntryRef)
	assert.Equal(t, float64(1), entries[0].Attributes["expiresAt"])
	assert.Equal(t, "file_3", entries[2].EntryRef)

	require.Len(t, *calls, 2)
	assert.Equal(t, "limit=100&order=asc", (*calls)[0].Query)
	assert.Equal(t, "after=file_2&limit=100&order=asc", (*calls)[1].Query)
}

func TestOpenAIStore_Errors(t *testing.T) {
	store, _ := fakeOpenAI(t, map[string]func(*http.Request) (int, string){
		"POST /responses":               reply(429, `{"error":{"message":"rate limited"}}`),
		"GET /vector_stores/vs_x/files": reply(401, `{"error":{"message":"bad key"}}`),
	})

	_, err := store.CreateResponse(context.Background(), model.ProviderRequest{Model: "m", Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate limited")

	_, err = store.List(context.Background(), "vs_x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestOpenAIStore_CreateResponse(t *testing.T) {
	store, calls := fakeOpenAI(t, map[string]func(*http.Request) (int, string){
		"POST /responses": reply(200, `{"id":"resp_1","output":[]}`),
	})
	filter := model.And(model.Eq("ownerId", "user-1"), model.Eq("sessionId", "s1"))

	raw, err := store.CreateResponse(context.Background(), model.ProviderRequest{
		Model: "gpt-4.1-mini",
		Query: "Is my overtime paid?",
		Tools: []model.Tool{
			{Kind: model.ToolDocumentSearch, IndexIDs: []string{"vs_user"}, Filter: &filter, MaxResults: 8},
			{Kind: model.ToolWebSearch},
		},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"resp_1","output":[]}`, string(raw))
	require.Len(t, *calls, 1)
	assert.Empty(t, (*calls)[0].Beta)

	got, err := json.Marshal((*calls)[0].Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "gpt-4.1-mini",
		"input": "Is my overtime paid?",
		"tools": [
			{
				"type": "file_search",
				"vector_store_ids": ["vs_user"],
				"max_num_results": 8,
				"filters": {"type": "and", "filters": [
					{"type": "eq", "key": "ownerId", "value": "user-1"},
					{"type": "eq", "key": "sessionId", "value": "s1"}
				]}
			},
			{"type": "web_search_preview"}
		]
	}`, string(got))
}

func TestResponsesBody_AttachedFilesAndSchema(t *testing.T) {
	body := responsesBody(model.ProviderRequest{
		Model:            "gpt-4.1",
		Query:            "Analyse the attached contract.",
		Instructions:     "Answer with JSON only.",
		Tools:            []model.Tool{{Kind: model.ToolDocumentSearch, IndexIDs: []string{"vs_reg"}}},
		AttachedFileRefs: []string{"file_contract"},
		ResponseFormat:   &model.ResponseFormat{Name: "analysis", Schema: map[string]any{"type": "object"}},
	})

	got, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "gpt-4.1",
		"instructions": "Answer with JSON only.",
		"tools": [{"type": "file_search", "vector_store_ids": ["vs_reg"]}],
		"input": [{"role": "user", "content": [
			{"type": "input_file", "file_id": "file_contract"},
			{"type": "input_text", "text": "Analyse the attached contract."}
		]}],
		"text": {"format": {"type": "json_schema", "name": "analysis", "schema": {"type": "object"}, "strict": false}}
	}`, string(got))
}

func TestOpenAIStore_NotFoundIsMarked(t *testing.T) {
	notFound := reply(404, `{"error":{"message":"No such File object: file_gone","type":"invalid_request_error"}}`)
	store, _ := fakeOpenAI(t, map[string]func(*http.Request) (int, string){
		"DELETE /files/file_gone":                       notFound,
		"DELETE /vector_stores/vs_user/files/file_gone": notFound,
		"POST /vector_stores/vs_user/files/file_gone":   notFound,
		"DELETE /files/file_busy":                       reply(500, `{"error":{"message":"server error"}}`),
	})

	err := store.Delete(context.Background(), "file_gone")
	assert.ErrorIs(t, err, services.ErrRemoteNotFound)

	err = store.Detach(context.Background(), "vs_user", "file_gone")
	assert.ErrorIs(t, err, services.ErrRemoteNotFound)

	err = store.UpdateAttributes(context.Background(), "vs_user", "file_gone", map[string]any{})
	assert.ErrorIs(t, err, services.ErrRemoteNotFound)

	err = store.Delete(context.Background(), "file_busy")
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrRemoteNotFound)
}
