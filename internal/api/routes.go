package api

import "github.com/gin-gonic/gin"

func registerRoutes(router *gin.Engine, s *Server) {
	v1 := router.Group("/api/v1")

	v1.POST("/transcripts", handleCreateTranscript(s))
	v1.GET("/transcripts", handleListTranscripts(s))
	v1.GET("/transcripts/:id", handleGetTranscript(s))

	v1.POST("/analysis/start", handleStartAnalysis(s))
	v1.POST("/analysis/retry/:transcript_id", handleRetryAnalysis(s))
	v1.GET("/jobs", handleListJobs(s))
	v1.GET("/jobs/:id", handleGetJob(s))

	v1.GET("/graphs/:transcript_id", handleGetGraph(s))
	v1.GET("/graphs/:transcript_id/critical-path", handleCriticalPath(s))
	v1.GET("/graphs/:transcript_id/bottlenecks", handleBottlenecks(s))
	v1.GET("/graphs/:transcript_id/gantt", handleGantt(s))

	v1.GET("/tasks", handleListTasks(s))
	v1.GET("/tasks/:id", handleGetTask(s))
	v1.PUT("/tasks/:id", handleUpdateTask(s))
	v1.DELETE("/tasks/:id", handleDeleteTask(s))
	v1.POST("/tasks/:id/complete", handleCompleteTask(s))
	v1.POST("/tasks/:id/start", handleStartTask(s))
	v1.POST("/tasks/:id/block", handleBlockTask(s))
	v1.POST("/tasks/:id/reset", handleResetTask(s))

	v1.GET("/export/:transcript_id", handleExport(s))
}
