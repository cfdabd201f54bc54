package services

import (
	"context"

	model "github.com/Itish41/EmployeeCounsel/models"
)

const chatInstructions = `You answer an employee's questions about their own employment documents.
Ground every statement in the documents found by file search, cite them, and use the web
only for current regulations. If the documents do not answer the question, say so.`

// ChatRequest is one conversational question.
type ChatRequest struct {
	OwnerID   string
	SessionID *string
	Question  string
	Model     string
	// WebSearch defaults to on; set false to keep the answer to stored documents.
	WebSearch *bool
}

// ChatService answers questions over the caller's own documents.
type ChatService struct {
	retrieval   *RetrievalService
	userIndexID string
	maxResults  int
}

func NewChatService(retrieval *RetrievalService, userIndexID string, maxResults int) *ChatService {
	return &ChatService{retrieval: retrieval, userIndexID: userIndexID, maxResults: maxResults}
}

// Ask searches the user index restricted to the caller (and their session,
// when given).
func (s *ChatService) Ask(ctx context.Context, req ChatRequest) (*model.RetrievalResult, error) {
	filter := BuildFilter(req.OwnerID, req.SessionID)
	web := req.WebSearch == nil || *req.WebSearch

	return s.retrieval.Query(ctx, model.QueryRequest{
		Question:         req.Question,
		IndexIDs:         indexIDs(s.userIndexID),
		Filter:           &filter,
		IncludeWebSearch: web,
		MaxResults:       s.maxResults,
		Model:            req.Model,
		Instructions:     chatInstructions,
	})
}

// indexIDs drops unconfigured (empty) index ids.
func indexIDs(ids ...string) []string {
	var out []string
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
