package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskflow/taskflow/internal/analysis"
	"github.com/taskflow/taskflow/internal/graph"
	"github.com/taskflow/taskflow/internal/models"
	"github.com/taskflow/taskflow/internal/schedule"
)

const defaultBottleneckCount = 10

func handleGetGraph(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		transcriptID := c.Param("transcript_id")

		if c.Query("use_cache") == "true" {
			rec, err := analysis.CachedGraph(s.DB, transcriptID)
			if err != nil {
				respondFailure(c, err)
				return
			}
			respondOK(c, cachedGraphPayload(rec))
			return
		}

		view, err := analysis.ComputeGraph(s.DB, transcriptID, s.Schedule)
		if err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, view)
	}
}

func handleCriticalPath(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := analysis.ComputeGraph(s.DB, c.Param("transcript_id"), s.Schedule)
		if err != nil {
			respondFailure(c, err)
			return
		}
		if !view.IsDAG {
			respondError(c, http.StatusConflict, "graph contains cyclic dependencies")
			return
		}
		respondOK(c, gin.H{
			"transcript_id":        view.TranscriptID,
			"critical_path":        view.CriticalPath,
			"critical_path_length": view.CriticalPathLength,
			"total_duration_hours": view.TotalDurationHours,
			"total_duration_days":  view.TotalDurationDays,
			"slack":                view.Slack,
		})
	}
}

func handleBottlenecks(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		topN := defaultBottleneckCount
		if raw := c.Query("top_n"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				respondError(c, http.StatusBadRequest, "top_n must be a positive integer")
				return
			}
			topN = n
		}

		view, err := analysis.ComputeGraph(s.DB, c.Param("transcript_id"), s.Schedule)
		if err != nil {
			respondFailure(c, err)
			return
		}

		ranked := graph.Bottlenecks(view.Built)
		if len(ranked) > topN {
			ranked = ranked[:topN]
		}
		respondOK(c, gin.H{
			"transcript_id": view.TranscriptID,
			"bottlenecks":   ranked,
		})
	}
}

func handleGantt(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		if raw := c.Query("start"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, "start must be RFC 3339")
				return
			}
			start = parsed
		}

		view, err := analysis.ComputeGraph(s.DB, c.Param("transcript_id"), s.Schedule)
		if err != nil {
			respondFailure(c, err)
			return
		}
		if !view.IsDAG {
			respondError(c, http.StatusConflict, "graph contains cyclic dependencies")
			return
		}

		rows := schedule.GanttRows(view.Built, view.Schedule, start)
		respondOK(c, gin.H{
			"transcript_id": view.TranscriptID,
			"project_start": start.Format(time.RFC3339),
			"rows":          rows,
		})
	}
}

// cachedGraphPayload decodes the JSON columns of a stored graph record
// into the same shape ComputeGraph returns. A column that fails to decode
// is served empty and logged; the row is a cache, not the source of truth.
func cachedGraphPayload(rec *models.GraphRecord) gin.H {
	criticalPath := []string{}
	if rec.CriticalPath != "" {
		if err := json.Unmarshal([]byte(rec.CriticalPath), &criticalPath); err != nil {
			log.Printf("api: decode cached critical path of %s: %v", rec.TranscriptID, err)
			criticalPath = []string{}
		}
	}
	slack := map[string]float64{}
	if rec.SlackData != "" {
		if err := json.Unmarshal([]byte(rec.SlackData), &slack); err != nil {
			log.Printf("api: decode cached slack of %s: %v", rec.TranscriptID, err)
			slack = map[string]float64{}
		}
	}
	var rendered *analysis.RenderGraph
	if rec.GraphData != "" {
		rendered = &analysis.RenderGraph{}
		if err := json.Unmarshal([]byte(rec.GraphData), rendered); err != nil {
			log.Printf("api: decode cached graph data of %s: %v", rec.TranscriptID, err)
			rendered = nil
		}
	}

	return gin.H{
		"transcript_id":        rec.TranscriptID,
		"nodes_count":          rec.NodesCount,
		"edges_count":          rec.EdgesCount,
		"critical_path":        criticalPath,
		"critical_path_length": rec.CriticalPathLength,
		"total_duration_hours": rec.TotalDurationHours,
		"total_duration_days":  rec.TotalDurationDays,
		"slack":                slack,
		"graph":                rendered,
		"cached":               true,
		"cached_at":            rec.UpdatedAt,
	}
}
