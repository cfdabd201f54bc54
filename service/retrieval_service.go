package services

import (
	"context"
	"log"
	"strings"

	model "github.com/Itish41/EmployeeCounsel/models"
)

// RetrievalService issues one provider call per query across the requested
// indexes and, optionally, the web.
type RetrievalService struct {
	client       ResponsesClient
	defaultModel string
	clock        Clock
}

// NewRetrievalService wires a provider client with the model used when a
// request does not name one.
func NewRetrievalService(client ResponsesClient, defaultModel string) *RetrievalService {
	return &RetrievalService{client: client, defaultModel: defaultModel, clock: SystemClock}
}

// Query searches every index in req.IndexIDs under the same filter. Provider
// failures are returned unchanged apart from wrapping; there is no retry.
func (s *RetrievalService) Query(ctx context.Context, req model.QueryRequest) (*model.RetrievalResult, error) {
	if len(req.IndexIDs) == 0 {
		return nil, ErrNoIndexes
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}

	providerReq := buildProviderRequest(req, s.defaultModel)

	start := s.clock.Now()
	raw, err := s.client.CreateResponse(ctx, providerReq)
	latency := s.clock.Now().Sub(start).Milliseconds()
	if err != nil {
		log.Printf("[Retrieval] provider call failed after %dms: %v", latency, err)
		return nil, providerError("create response", err)
	}

	result, err := ParseResponse(raw, latency)
	if err != nil {
		return nil, err
	}
	log.Printf("[Retrieval] %s answered in %dms with %d citations, %d tool calls",
		result.ProviderRequestID, latency, len(result.Citations), len(result.ToolInvocations))
	return result, nil
}

func buildProviderRequest(req model.QueryRequest, defaultModel string) model.ProviderRequest {
	modelName := req.Model
	if modelName == "" {
		modelName = defaultModel
	}

	tools := []model.Tool{{
		Kind:       model.ToolDocumentSearch,
		IndexIDs:   append([]string(nil), req.IndexIDs...),
		Filter:     req.Filter,
		MaxResults: req.MaxResults,
	}}
	if req.IncludeWebSearch {
		tools = append(tools, model.Tool{Kind: model.ToolWebSearch})
	}

	return model.ProviderRequest{
		Model:            modelName,
		Query:            req.Question,
		Instructions:     req.Instructions,
		Tools:            tools,
		AttachedFileRefs: req.AttachedFileRefs,
		ResponseFormat:   req.ResponseFormat,
	}
}
