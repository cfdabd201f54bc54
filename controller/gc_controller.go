package controller

import (
	"log"
	"net/http"

	model "github.com/Itish41/EmployeeCounsel/models"

	"github.com/gin-gonic/gin"
)

// SweepExpired runs garbage collection over the named index, or over every
// configured index when none is named. Listing failures are reported per
// index and do not stop the other sweeps.
func (dc *DocumentController) SweepExpired(ctx *gin.Context) {
	indexIDs := dc.sweepIndexIDs
	if id := ctx.Query("index"); id != "" {
		indexIDs = []string{id}
	}

	results := make([]model.SweepResult, 0, len(indexIDs))
	failures := gin.H{}
	for _, id := range indexIDs {
		res, err := dc.lifecycle.SweepExpired(ctx.Request.Context(), id)
		if err != nil {
			log.Printf("[GC] sweep of %s failed: %v", id, err)
			failures[id] = err.Error()
			continue
		}
		results = append(results, res)
	}

	status := http.StatusOK
	if len(failures) > 0 {
		status = http.StatusBadGateway
	}
	ctx.JSON(status, gin.H{"results": results, "failures": failures})
}
