package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskflow/taskflow/internal/analysis"
)

type startAnalysisRequest struct {
	TranscriptID   string `json:"transcript_id"`
	IdempotencyKey string `json:"idempotency_key"`
	Force          bool   `json:"force"`
}

func handleStartAnalysis(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.TranscriptID == "" {
			respondError(c, http.StatusBadRequest, "transcript_id is required")
			return
		}

		res, err := analysis.Start(s.DB, req.TranscriptID, req.IdempotencyKey, req.Force)
		if err != nil {
			if strings.Contains(err.Error(), "idempotency key") {
				respondError(c, http.StatusBadRequest, err.Error())
				return
			}
			respondFailure(c, err)
			return
		}
		respondOK(c, res)
	}
}

func handleRetryAnalysis(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := analysis.Retry(s.DB, c.Param("transcript_id"))
		if err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, res)
	}
}

func handleListJobs(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs, err := analysis.ListJobs(s.DB, analysis.JobFilters{
			TranscriptID: c.Query("transcript_id"),
			Status:       c.Query("status"),
			JobType:      c.Query("job_type"),
		})
		if err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, jobs)
	}
}

func handleGetJob(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := analysis.GetJob(s.DB, c.Param("id"))
		if err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, job)
	}
}
