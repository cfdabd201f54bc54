package controller

import (
	"net/http"
	"strconv"

	"github.com/Itish41/EmployeeCounsel/middleware"
	services "github.com/Itish41/EmployeeCounsel/service"

	"github.com/gin-gonic/gin"
)

type analyzeRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	SessionID  string `json:"session_id"`
	Model      string `json:"model"`
}

// AnalyzeDocument runs a compliance analysis of one uploaded document. Output
// that fails validation is still a 200, with structured=false and the raw
// narrative answer.
func (dc *DocumentController) AnalyzeDocument(ctx *gin.Context) {
	var req analyzeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := dc.analysis.Analyze(ctx.Request.Context(), services.AnalyzeRequest{
		OwnerID:    middleware.UserID(ctx),
		SessionID:  optionalString(req.SessionID),
		DocumentID: req.DocumentID,
		Model:      req.Model,
	})
	if err != nil {
		respondError(ctx, err, "analysis failed, please retry")
		return
	}
	ctx.JSON(http.StatusOK, outcome)
}

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// searchLimit parses the limit query parameter into [1, maxSearchLimit].
func searchLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	switch {
	case err != nil || limit <= 0:
		return defaultSearchLimit
	case limit > maxSearchLimit:
		return maxSearchLimit
	default:
		return limit
	}
}

// SearchAnalyses searches the caller's archived analyses
func (dc *DocumentController) SearchAnalyses(ctx *gin.Context) {
	limit := searchLimit(ctx.Query("limit"))
	results, err := dc.analysis.SearchAnalyses(ctx.Request.Context(),
		middleware.UserID(ctx), optionalString(ctx.Query("session_id")), ctx.Query("q"), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Search completed successfully",
		"results": results,
	})
}

type chatRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
	WebSearch *bool  `json:"web_search"`
	Model     string `json:"model"`
}

// Chat answers a question over the caller's documents.
func (dc *DocumentController) Chat(ctx *gin.Context) {
	var req chatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := dc.chat.Ask(ctx.Request.Context(), services.ChatRequest{
		OwnerID:   middleware.UserID(ctx),
		SessionID: optionalString(req.SessionID),
		Question:  req.Question,
		Model:     req.Model,
		WebSearch: req.WebSearch,
	})
	if err != nil {
		respondError(ctx, err, "answer failed, please retry")
		return
	}
	ctx.JSON(http.StatusOK, result)
}
