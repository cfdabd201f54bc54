package controller

import (
	"net/http"

	"github.com/Itish41/EmployeeCounsel/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every route of the API.
func NewRouter(dc *DocumentController, cronSecret string) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())

	// Healthcheck endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.POST("/internal/gc/sweep", middleware.RequireCronSecret(cronSecret), dc.SweepExpired)

	api := router.Group("/", middleware.RequireUser(), middleware.GlobalRateLimiter.Limit())
	api.POST("/documents", dc.UploadDocument)
	api.GET("/documents", dc.GetAllDocuments)
	api.GET("/documents/:id/status", dc.GetDocumentStatus)
	api.DELETE("/documents/:id", dc.DeleteDocument)

	// Provider-backed routes with stricter rate limiting
	api.POST("/chat", middleware.StrictRateLimiter.Limit(), dc.Chat)
	api.POST("/analyses", middleware.StrictRateLimiter.Limit(), dc.AnalyzeDocument)
	api.GET("/analyses/search", dc.SearchAnalyses)

	api.POST("/regulations", middleware.StrictRateLimiter.Limit(), dc.AddRegulation)

	return router
}
