package controller

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/Itish41/EmployeeCounsel/middleware"
	model "github.com/Itish41/EmployeeCounsel/models"
	services "github.com/Itish41/EmployeeCounsel/service"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 20 << 20

// DocumentController manages HTTP requests for documents, analyses, chat
// and garbage collection.
type DocumentController struct {
	documents *services.DocumentService
	analysis  *services.AnalysisService
	chat      *services.ChatService
	lifecycle *services.IndexLifecycleService

	// sweepIndexIDs are swept when a GC request names no index.
	sweepIndexIDs []string
}

// NewDocumentController initializes the controller with the services
func NewDocumentController(
	documents *services.DocumentService,
	analysis *services.AnalysisService,
	chat *services.ChatService,
	lifecycle *services.IndexLifecycleService,
	sweepIndexIDs []string,
) *DocumentController {
	return &DocumentController{
		documents:     documents,
		analysis:      analysis,
		chat:          chat,
		lifecycle:     lifecycle,
		sweepIndexIDs: sweepIndexIDs,
	}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// UploadDocument handles the file upload request
func (dc *DocumentController) UploadDocument(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get file from request"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the 20MB limit"})
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	doc, err := dc.documents.Upload(ctx.Request.Context(), services.UploadInput{
		OwnerID:     middleware.UserID(ctx),
		SessionID:   optionalString(ctx.PostForm("session_id")),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
		Kind:        model.DocumentKind(ctx.PostForm("document_kind")),
		Source:      ctx.PostForm("source"),
	})
	if err != nil {
		respondError(ctx, err, "upload failed, please retry")
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message":  "Document uploaded successfully",
		"document": doc,
	})
}

// GetDocumentStatus reports the indexing status of one document.
func (dc *DocumentController) GetDocumentStatus(ctx *gin.Context) {
	doc, err := dc.documents.Status(ctx.Request.Context(), middleware.UserID(ctx), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, "status check failed, please retry")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id": doc.ID, "indexing_status": doc.IndexingStatus})
}

// DeleteDocument removes one document everywhere it is stored.
func (dc *DocumentController) DeleteDocument(ctx *gin.Context) {
	if err := dc.documents.DeleteDocument(ctx.Request.Context(), middleware.UserID(ctx), ctx.Param("id")); err != nil {
		respondError(ctx, err, "delete failed, please retry")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetAllDocuments lists the caller's documents
func (dc *DocumentController) GetAllDocuments(ctx *gin.Context) {
	docs, err := dc.documents.ListDocuments(ctx.Request.Context(), middleware.UserID(ctx), optionalString(ctx.Query("session_id")))
	if err != nil {
		log.Printf("Error fetching documents: %v", err)
		respondError(ctx, err, "Failed to retrieve documents")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     len(docs),
	})
}

// respondError maps service errors onto HTTP statuses. Provider failures are
// reported with a retry hint instead of the underlying cause.
func respondError(ctx *gin.Context, err error, providerMessage string) {
	switch {
	case errors.Is(err, services.ErrDocumentNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
	case errors.Is(err, services.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "document belongs to another user"})
	case errors.Is(err, services.ErrEmptyQuestion):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoIndexes):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "no retrieval index is configured"})
	case errors.Is(err, services.ErrProviderFailure):
		log.Printf("provider failure: %v", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": providerMessage})
	default:
		log.Printf("request failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
