package controller

import (
	"io"
	"net/http"
	"strings"

	services "github.com/Itish41/EmployeeCounsel/service"

	"github.com/gin-gonic/gin"
)

// AddRegulation registers a regulation file in the shared regulation index.
func (dc *DocumentController) AddRegulation(ctx *gin.Context) {
	title := strings.TrimSpace(ctx.PostForm("title"))
	if title == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get file from request"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	reg, err := dc.documents.RegisterRegulation(ctx.Request.Context(), services.RegulationInput{
		Title:    title,
		FileName: header.Filename,
		Content:  content,
	})
	if err != nil {
		respondError(ctx, err, "regulation registration failed, please retry")
		return
	}
	ctx.JSON(http.StatusCreated, reg)
}
