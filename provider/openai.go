// Package provider holds the outbound adapters: the OpenAI file, vector
// store and Responses APIs, the Elasticsearch analysis archive and the S3
// blob archive.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	model "github.com/Itish41/EmployeeCounsel/models"
	services "github.com/Itish41/EmployeeCounsel/service"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	listPageSize   = 100
)

// OpenAIStore talks to OpenAI for raw files, vector-store attachments and
// retrieval calls. go-openai covers files and plain vector-store file calls;
// the Responses API and attachment attributes go over plain HTTP.
type OpenAIStore struct {
	client     *openai.Client
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

var (
	_ services.FileStore       = (*OpenAIStore)(nil)
	_ services.IndexStore      = (*OpenAIStore)(nil)
	_ services.ResponsesClient = (*OpenAIStore)(nil)
)

// NewOpenAIStore builds the adapter. An empty baseURL means the public API.
func NewOpenAIStore(apiKey, baseURL string, httpClient *http.Client) *OpenAIStore {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = httpClient

	return &OpenAIStore{
		client:     openai.NewClientWithConfig(cfg),
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// Upload stores the raw file and returns its file id.
func (o *OpenAIStore) Upload(ctx context.Context, fileName string, content []byte) (string, error) {
	file, err := o.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    fileName,
		Bytes:   content,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return file.ID, nil
}

// Delete removes a raw file.
func (o *OpenAIStore) Delete(ctx context.Context, fileRef string) error {
	if err := o.client.DeleteFile(ctx, fileRef); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileRef, markNotFound(err))
	}
	return nil
}

// vectorStoreFile is the attribute-aware view of a vector-store file.
type vectorStoreFile struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Attributes map[string]any `json:"attributes"`
	LastError  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

func (f vectorStoreFile) entry() services.IndexEntry {
	// A vector-store file shares its id with the underlying file.
	return services.IndexEntry{EntryRef: f.ID, FileRef: f.ID, Status: f.Status, Attributes: f.Attributes}
}

// Attach adds a file to a vector store with its attributes.
func (o *OpenAIStore) Attach(ctx context.Context, indexID, fileRef string, attrs map[string]any) (services.IndexEntry, error) {
	var out vectorStoreFile
	body := map[string]any{"file_id": fileRef, "attributes": attrs}
	if err := o.doJSON(ctx, http.MethodPost, "/vector_stores/"+indexID+"/files", body, &out); err != nil {
		return services.IndexEntry{}, err
	}
	return out.entry(), nil
}

// Status returns the provider-native status of an attachment.
func (o *OpenAIStore) Status(ctx context.Context, indexID, entryRef string) (string, error) {
	f, err := o.client.RetrieveVectorStoreFile(ctx, indexID, entryRef)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve vector store file %s: %w", entryRef, err)
	}
	return f.Status, nil
}

// UpdateAttributes replaces the attributes of an attachment.
func (o *OpenAIStore) UpdateAttributes(ctx context.Context, indexID, entryRef string, attrs map[string]any) error {
	body := map[string]any{"attributes": attrs}
	return o.doJSON(ctx, http.MethodPost, "/vector_stores/"+indexID+"/files/"+entryRef, body, nil)
}

// Detach removes a file from a vector store. The file itself is kept.
func (o *OpenAIStore) Detach(ctx context.Context, indexID, entryRef string) error {
	if err := o.client.DeleteVectorStoreFile(ctx, indexID, entryRef); err != nil {
		return fmt.Errorf("failed to detach %s from %s: %w", entryRef, indexID, markNotFound(err))
	}
	return nil
}

// List pages through every file of a vector store.
func (o *OpenAIStore) List(ctx context.Context, indexID string) ([]services.IndexEntry, error) {
	var entries []services.IndexEntry
	after := ""
	for {
		q := url.Values{}
		q.Set("limit", fmt.Sprint(listPageSize))
		q.Set("order", "asc")
		if after != "" {
			q.Set("after", after)
		}

		var page struct {
			Data    []vectorStoreFile `json:"data"`
			HasMore bool              `json:"has_more"`
			LastID  string            `json:"last_id"`
		}
		if err := o.doJSON(ctx, http.MethodGet, "/vector_stores/"+indexID+"/files?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, f := range page.Data {
			entries = append(entries, f.entry())
		}

		if !page.HasMore || len(page.Data) == 0 {
			return entries, nil
		}
		after = page.LastID
		if after == "" {
			after = page.Data[len(page.Data)-1].ID
		}
	}
}

// CreateResponse issues one Responses API call and returns the raw body.
func (o *OpenAIStore) CreateResponse(ctx context.Context, req model.ProviderRequest) ([]byte, error) {
	body := responsesBody(req)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response request: %w", err)
	}
	return o.do(ctx, http.MethodPost, "/responses", payload)
}

// responsesBody maps a provider request onto the Responses API shape.
func responsesBody(req model.ProviderRequest) map[string]any {
	tools := make([]map[string]any, 0, len(req.Tools))
	for _, t := range req.Tools {
		switch t.Kind {
		case model.ToolDocumentSearch:
			tool := map[string]any{
				"type":             "file_search",
				"vector_store_ids": t.IndexIDs,
			}
			if t.Filter != nil {
				tool["filters"] = t.Filter
			}
			if t.MaxResults > 0 {
				tool["max_num_results"] = t.MaxResults
			}
			tools = append(tools, tool)
		case model.ToolWebSearch:
			tools = append(tools, map[string]any{"type": "web_search_preview"})
		}
	}

	body := map[string]any{
		"model": req.Model,
		"tools": tools,
	}
	if req.Instructions != "" {
		body["instructions"] = req.Instructions
	}

	if len(req.AttachedFileRefs) == 0 {
		body["input"] = req.Query
	} else {
		content := make([]map[string]any, 0, len(req.AttachedFileRefs)+1)
		for _, ref := range req.AttachedFileRefs {
			content = append(content, map[string]any{"type": "input_file", "file_id": ref})
		}
		content = append(content, map[string]any{"type": "input_text", "text": req.Query})
		body["input"] = []map[string]any{{"role": "user", "content": content}}
	}

	if req.ResponseFormat != nil {
		body["text"] = map[string]any{
			"format": map[string]any{
				"type":   "json_schema",
				"name":   req.ResponseFormat.Name,
				"schema": req.ResponseFormat.Schema,
				"strict": req.ResponseFormat.Strict,
			},
		}
	}
	return body
}

func (o *OpenAIStore) doJSON(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	data, err := o.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (o *OpenAIStore) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, o.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if strings.HasPrefix(path, "/vector_stores") {
		req.Header.Set("OpenAI-Beta", "assistants=v2")
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[OpenAI] %s %s: status %d", method, path, resp.StatusCode)
		err := fmt.Errorf("openai %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
		if resp.StatusCode == http.StatusNotFound {
			err = fmt.Errorf("%w: %w", services.ErrRemoteNotFound, err)
		}
		return nil, err
	}
	return data, nil
}

// markNotFound tags a go-openai 404 with services.ErrRemoteNotFound.
func markNotFound(err error) error {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		code   int
	)
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	}
	if code == http.StatusNotFound {
		return fmt.Errorf("%w: %w", services.ErrRemoteNotFound, err)
	}
	return err
}
