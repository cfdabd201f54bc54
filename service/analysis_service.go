package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	model "github.com/Itish41/EmployeeCounsel/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalyzeRequest asks for a compliance analysis of one uploaded document.
// RawFileRef and DocumentKind are used directly when no repository is wired.
type AnalyzeRequest struct {
	OwnerID      string
	SessionID    *string
	DocumentID   string
	RawFileRef   string
	DocumentKind model.DocumentKind
	Model        string
}

// AnalysisOutcome is what the analysis path hands back to the HTTP layer.
// When Structured is false, Defects lists why and RawAnswer carries the
// narrative fallback.
type AnalysisOutcome struct {
	RecordID   string                      `json:"record_id"`
	Structured bool                        `json:"structured"`
	Analysis   *model.AnalysisResult       `json:"analysis,omitempty"`
	References *model.AggregatedReferences `json:"references,omitempty"`
	Defects    []string                    `json:"defects,omitempty"`
	RawAnswer  string                      `json:"raw_answer"`
	Retrieval  *model.RetrievalResult      `json:"retrieval"`
}

// AnalysisService runs the schema-constrained analysis call and
// post-processes its output.
type AnalysisService struct {
	retrieval         *RetrievalService
	regulationIndexID string
	maxResults        int

	Repo    DocumentRepository
	Archive AnalysisArchive
}

func NewAnalysisService(retrieval *RetrievalService, regulationIndexID string, maxResults int) *AnalysisService {
	return &AnalysisService{retrieval: retrieval, regulationIndexID: regulationIndexID, maxResults: maxResults}
}

// Analyze attaches the document to a single provider call that searches the
// regulation corpus and the web, then validates and aggregates the result.
// Shape defects never surface as errors.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisOutcome, error) {
	fileRef, kind, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := s.retrieval.Query(ctx, model.QueryRequest{
		Question:         fmt.Sprintf("Analyse the attached %s for compliance with Indonesian employment law.", kind),
		IndexIDs:         indexIDs(s.regulationIndexID),
		IncludeWebSearch: true,
		MaxResults:       s.maxResults,
		Model:            req.Model,
		Instructions:     analysisInstructions(kind),
		AttachedFileRefs: []string{fileRef},
		ResponseFormat:   analysisResponseFormat(kind),
	})
	if err != nil {
		return nil, err
	}

	outcome := &AnalysisOutcome{
		RecordID:  uuid.NewString(),
		RawAnswer: result.AnswerText,
		Retrieval: result,
	}

	analysis, defects := decodeAnalysis(result.AnswerText)
	if len(defects) > 0 {
		log.Printf("[Analysis] %s: output failed validation with %d defects", result.ProviderRequestID, len(defects))
		outcome.Defects = defects
	} else {
		refs := AggregateReferences(analysis.Findings)
		outcome.Structured = true
		outcome.Analysis = analysis
		outcome.References = &refs
		log.Printf("[Analysis] %s: %d findings, %d regulations, %d web sources",
			result.ProviderRequestID, len(analysis.Findings), len(refs.StoredRegulations), len(refs.WebSources))
	}

	if err := s.record(ctx, req, outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *AnalysisService) resolveDocument(ctx context.Context, req AnalyzeRequest) (string, model.DocumentKind, error) {
	if s.Repo == nil || req.DocumentID == "" {
		if req.RawFileRef == "" {
			return "", "", ErrDocumentNotFound
		}
		return req.RawFileRef, model.ParseDocumentKind(string(req.DocumentKind)), nil
	}
	doc, err := s.Repo.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return "", "", err
	}
	if doc.OwnerID != req.OwnerID {
		return "", "", ErrForbidden
	}
	return doc.RawFileRef, doc.DocumentKind, nil
}

// decodeAnalysis validates the answer text and decodes it. Model output is
// sometimes wrapped in a markdown code fence.
func decodeAnalysis(answer string) (*model.AnalysisResult, []string) {
	data := []byte(stripCodeFence(answer))
	validation := ValidateAnalysisJSON(data)
	if !validation.Valid {
		return nil, validation.Errors
	}
	var analysis model.AnalysisResult
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, []string{fmt.Sprintf("analysis could not be decoded: %v", err)}
	}
	if analysis.SearchMethodsUsed == nil {
		var legacy struct {
			ToolsUsed []string `json:"tools_used"`
		}
		_ = json.Unmarshal(data, &legacy)
		analysis.SearchMethodsUsed = legacy.ToolsUsed
	}
	return &analysis, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func (s *AnalysisService) record(ctx context.Context, req AnalyzeRequest, outcome *AnalysisOutcome) error {
	rec := model.AnalysisRecord{
		ID:                outcome.RecordID,
		DocumentID:        req.DocumentID,
		OwnerID:           req.OwnerID,
		SessionID:         req.SessionID,
		Structured:        outcome.Structured,
		RawAnswer:         outcome.RawAnswer,
		ProviderRequestID: outcome.Retrieval.ProviderRequestID,
		TotalTokens:       outcome.Retrieval.TokenUsage.Total,
		LatencyMs:         outcome.Retrieval.LatencyMs,
	}
	var err error
	if outcome.Structured {
		if rec.Result, err = toJSON(outcome.Analysis); err != nil {
			return err
		}
		if rec.References, err = toJSON(outcome.References); err != nil {
			return err
		}
	} else if rec.Defects, err = toJSON(outcome.Defects); err != nil {
		return err
	}

	if s.Repo != nil {
		if err := s.Repo.SaveAnalysis(ctx, &rec); err != nil {
			log.Printf("[Analysis] failed to save record %s: %v", rec.ID, err)
			return fmt.Errorf("failed to save analysis: %w", err)
		}
	}
	if s.Archive != nil && outcome.Structured {
		// Archive failures do not fail the analysis.
		if err := s.Archive.Store(ctx, rec, outcome.Analysis); err != nil {
			log.Printf("[Analysis] failed to archive record %s: %v", rec.ID, err)
		}
	}
	return nil
}

// SearchAnalyses runs a full-text query over the caller's archived analyses.
func (s *AnalysisService) SearchAnalyses(ctx context.Context, ownerID string, sessionID *string, query string, limit int) ([]map[string]any, error) {
	if s.Archive == nil {
		return nil, errors.New("analysis archive is not configured")
	}
	return s.Archive.Search(ctx, query, BuildFilter(ownerID, sessionID), limit)
}

func toJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}
	return datatypes.JSON(data), nil
}
