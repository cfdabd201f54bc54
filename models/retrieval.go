package models

// NoAnswerGenerated is returned as the answer when the provider response
// contained no message item at all.
const NoAnswerGenerated = "No answer generated."

// ToolKind names a retrieval capability offered to the provider.
type ToolKind string

const (
	ToolDocumentSearch ToolKind = "document_search"
	ToolWebSearch      ToolKind = "web_search"
)

// Tool is one capability in a provider request. IndexIDs, Filter and
// MaxResults apply to document search only.
type Tool struct {
	Kind       ToolKind `json:"kind"`
	IndexIDs   []string `json:"indexIds,omitempty"`
	Filter     *Filter  `json:"filter,omitempty"`
	MaxResults int      `json:"maxResults,omitempty"`
}

// ResponseFormat asks the provider for schema-constrained JSON output.
type ResponseFormat struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

// ProviderRequest is the single call issued per query.
type ProviderRequest struct {
	Model            string          `json:"model,omitempty"`
	Query            string          `json:"query"`
	Instructions     string          `json:"instructions,omitempty"`
	Tools            []Tool          `json:"tools"`
	AttachedFileRefs []string        `json:"attachedFileRefs,omitempty"`
	ResponseFormat   *ResponseFormat `json:"responseFormat,omitempty"`
}

// QueryRequest is the input of the retrieval orchestrator.
type QueryRequest struct {
	Question         string
	IndexIDs         []string
	Filter           *Filter
	IncludeWebSearch bool
	// MaxResults caps document search hits; 0 leaves it to the provider.
	MaxResults int
	// Model overrides the configured default when set.
	Model            string
	Instructions     string
	AttachedFileRefs []string
	ResponseFormat   *ResponseFormat
}

// CitationKind discriminates citations parsed from a response.
type CitationKind string

const (
	CitationFile CitationKind = "file_citation"
	CitationURL  CitationKind = "url_citation"
)

// Citation is one inline annotation of the answer text.
type Citation struct {
	Kind CitationKind `json:"kind"`

	// file_citation
	FileRef  string `json:"file_ref,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Quote    string `json:"quote,omitempty"`
	Offset   int    `json:"offset,omitempty"`

	// url_citation
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	StartOffset int    `json:"start_offset,omitempty"`
	EndOffset   int    `json:"end_offset,omitempty"`

	// Snippet is the answer text surrounding the citation.
	Snippet string `json:"snippet"`
}

// ToolInvocation records a retrieval tool the provider actually ran.
type ToolInvocation struct {
	ID      string   `json:"id"`
	Kind    ToolKind `json:"kind"`
	Status  string   `json:"status"`
	Queries []string `json:"queries"`
}

// TokenUsage reported by the provider.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// RetrievalResult is the normalized outcome of one query.
type RetrievalResult struct {
	AnswerText        string           `json:"answer_text"`
	Citations         []Citation       `json:"citations"`
	ProviderRequestID string           `json:"provider_request_id"`
	TokenUsage        TokenUsage       `json:"token_usage"`
	ToolInvocations   []ToolInvocation `json:"tool_invocations"`
	LatencyMs         int64            `json:"latency_ms"`
}

// SweepResult summarises one garbage-collection pass over an index.
type SweepResult struct {
	IndexID string `json:"index_id"`
	Scanned int    `json:"scanned"`
	Deleted int    `json:"deleted"`
	Errors  int    `json:"errors"`
	// Skipped counts entries whose expiresAt could not be parsed.
	Skipped int `json:"skipped"`
}
