package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	model "github.com/Itish41/EmployeeCounsel/models"
	services "github.com/Itish41/EmployeeCounsel/service"
	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticAnalysisArchive indexes finished analyses so users can search their
// history. Documents carry the same ownerId/sessionId keys as index
// attributes, so a retrieval filter applies unchanged.
type ElasticAnalysisArchive struct {
	es    *elasticsearch.Client
	index string
}

var _ services.AnalysisArchive = (*ElasticAnalysisArchive)(nil)

func NewElasticAnalysisArchive(es *elasticsearch.Client, index string) *ElasticAnalysisArchive {
	return &ElasticAnalysisArchive{es: es, index: index}
}

// NewElasticClient connects to a single Elasticsearch node.
func NewElasticClient(esURL string) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esURL}})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return es, nil
}

var archiveMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			model.AttrOwnerID:   map[string]any{"type": "keyword"},
			model.AttrSessionID: map[string]any{"type": "keyword"},
			"record_id":         map[string]any{"type": "keyword"},
			"document_id":       map[string]any{"type": "keyword"},
			"summary":           map[string]any{"type": "text"},
			"findings_text":     map[string]any{"type": "text"},
			"regulations":       map[string]any{"type": "text"},
			"max_severity":      map[string]any{"type": "float"},
			"created_at":        map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex creates the archive index with keyword mappings for the
// filter keys if it does not exist yet.
func (a *ElasticAnalysisArchive) EnsureIndex(ctx context.Context) error {
	res, err := a.es.Indices.Exists([]string{a.index}, a.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists request failed: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	body, err := json.Marshal(archiveMapping)
	if err != nil {
		return fmt.Errorf("failed to marshal index mapping: %w", err)
	}
	res, err = a.es.Indices.Create(
		a.index,
		a.es.Indices.Create.WithBody(bytes.NewReader(body)),
		a.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch create index failed: %s", res.String())
	}
	log.Printf("[Archive] created index %s", a.index)
	return nil
}

// Store indexes one analysis under its record id.
func (a *ElasticAnalysisArchive) Store(ctx context.Context, rec model.AnalysisRecord, result *model.AnalysisResult) error {
	doc := archiveDocument(rec, result)
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis for indexing: %w", err)
	}

	res, err := a.es.Index(
		a.index,
		bytes.NewReader(body),
		a.es.Index.WithDocumentID(rec.ID),
		a.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch indexing error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch indexing failed: %s", res.String())
	}
	return nil
}

func archiveDocument(rec model.AnalysisRecord, result *model.AnalysisResult) map[string]any {
	var (
		texts       []string
		regulations []string
		maxSeverity float64
		findings    = make([]map[string]any, 0)
	)
	if result != nil {
		for _, f := range result.Findings {
			texts = append(texts, f.Title, f.Explanation, f.Recommendation)
			if f.SeverityScore > maxSeverity {
				maxSeverity = f.SeverityScore
			}
			for _, ref := range f.References {
				if ref.StoredRegulation != nil {
					regulations = append(regulations, ref.StoredRegulation.Title)
				}
			}
			findings = append(findings, map[string]any{
				"id":                f.ID,
				"title":             f.Title,
				"category":          f.Category,
				"priority":          f.Priority,
				"compliance_status": f.ComplianceStatus,
				"severity_score":    f.SeverityScore,
			})
		}
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	doc := map[string]any{
		model.AttrOwnerID: rec.OwnerID,
		"record_id":       rec.ID,
		"document_id":     rec.DocumentID,
		"findings":        findings,
		"findings_text":   strings.Join(texts, "\n"),
		"regulations":     strings.Join(regulations, "\n"),
		"max_severity":    maxSeverity,
		"created_at":      createdAt,
	}
	if result != nil {
		doc["summary"] = result.Summary
	}
	if rec.SessionID != nil {
		doc[model.AttrSessionID] = *rec.SessionID
	}
	return doc
}

// FilterQuery translates a retrieval filter into an Elasticsearch query
// clause: eq becomes term, and becomes bool.filter.
func FilterQuery(f model.Filter) map[string]any {
	switch f.Type {
	case model.FilterAnd:
		clauses := make([]map[string]any, 0, len(f.Filters))
		for _, child := range f.Filters {
			clauses = append(clauses, FilterQuery(child))
		}
		return map[string]any{"bool": map[string]any{"filter": clauses}}
	default:
		return map[string]any{"term": map[string]any{f.Key: f.Value}}
	}
}

func searchBody(query string, filter model.Filter, limit int) map[string]any {
	must := map[string]any{"match_all": map[string]any{}}
	if strings.TrimSpace(query) != "" {
		must = map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"summary", "findings_text", "regulations"},
			},
		}
	}
	if limit <= 0 {
		limit = 10
	}
	return map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"must":   []map[string]any{must},
				"filter": []map[string]any{FilterQuery(filter)},
			},
		},
		"sort": []map[string]any{{"_score": "desc"}, {"created_at": "desc"}},
	}
}

// Search returns the _source of matching archived analyses.
func (a *ElasticAnalysisArchive) Search(ctx context.Context, query string, filter model.Filter, limit int) ([]map[string]any, error) {
	body, err := json.Marshal(searchBody(query, filter, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := a.es.Search(
		a.es.Search.WithContext(ctx),
		a.es.Search.WithIndex(a.index),
		a.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	documents := make([]map[string]any, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		if hit.Source != nil {
			documents = append(documents, hit.Source)
		}
	}
	return documents, nil
}
