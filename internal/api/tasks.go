package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskflow/taskflow/internal/notify"
	"github.com/taskflow/taskflow/internal/task"
)

func handleListTasks(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := task.List(s.DB, task.ListFilters{
			TranscriptID: c.Query("transcript_id"),
			Status:       c.Query("status"),
			Priority:     c.Query("priority"),
			Assignee:     c.Query("assignee"),
		})
		if err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, tasks)
	}
}

func handleGetTask(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := task.Get(s.DB, c.Param("id"))
		if err != nil {
			respondFailure(c, err)
			return
		}
		blocked, blockers, err := task.IsBlocked(s.DB, t.ID)
		if err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, gin.H{"task": t, "is_blocked": blocked, "blocked_by": blockers})
	}
}

type updateTaskRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Status         *string  `json:"status"`
	Priority       *string  `json:"priority"`
	Assignee       *string  `json:"assignee"`
	EstimatedHours *float64 `json:"estimated_hours"`
	ActualHours    *float64 `json:"actual_hours"`
}

func (r updateTaskRequest) updates() map[string]interface{} {
	out := map[string]interface{}{}
	if r.Title != nil {
		out["title"] = *r.Title
	}
	if r.Description != nil {
		out["description"] = *r.Description
	}
	if r.Status != nil {
		out["status"] = *r.Status
	}
	if r.Priority != nil {
		out["priority"] = *r.Priority
	}
	if r.Assignee != nil {
		out["assignee"] = *r.Assignee
	}
	if r.EstimatedHours != nil {
		out["estimated_hours"] = *r.EstimatedHours
	}
	if r.ActualHours != nil {
		out["actual_hours"] = *r.ActualHours
	}
	return out
}

func handleUpdateTask(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		updates := req.updates()
		if len(updates) == 0 {
			respondError(c, http.StatusBadRequest, "no fields to update")
			return
		}

		t, err := task.Update(s.DB, c.Param("id"), updates)
		if err != nil {
			if strings.Contains(err.Error(), "invalid") || strings.Contains(err.Error(), "unknown") {
				respondError(c, http.StatusBadRequest, err.Error())
				return
			}
			respondFailure(c, err)
			return
		}
		respondOK(c, t)
	}
}

func handleDeleteTask(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := task.Delete(s.DB, c.Param("id")); err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, gin.H{"deleted": true})
	}
}

type completeTaskRequest struct {
	ActualHours float64 `json:"actual_hours"`
}

func handleCompleteTask(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req completeTaskRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
				return
			}
		}

		res, err := task.Complete(s.DB, c.Param("id"), req.ActualHours)
		if err != nil {
			var blocked *task.BlockedError
			if errors.As(err, &blocked) {
				c.JSON(http.StatusOK, gin.H{
					"success": false,
					"message": "task has incomplete prerequisites",
					"data":    gin.H{"blocked_by": blocked.Blockers},
				})
				return
			}
			respondFailure(c, err)
			return
		}

		if s.Notifier != nil {
			ev := notify.Event{
				Kind:         notify.KindTaskCompleted,
				TranscriptID: res.Task.TranscriptID,
				TaskID:       res.Task.ID,
				TaskTitle:    res.Task.Title,
				Message:      strings.Join(res.Unlocked, ", "),
			}
			if err := s.Notifier.Notify(c.Request.Context(), ev); err != nil {
				log.Printf("api: notify task completed %s: %v", res.Task.ID, err)
			}
		}

		respondOK(c, gin.H{"task": res.Task, "unlocked": res.Unlocked})
	}
}

func handleStartTask(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := task.Start(s.DB, c.Param("id"))
		if err != nil {
			var blocked *task.BlockedError
			if errors.As(err, &blocked) {
				c.JSON(http.StatusOK, gin.H{
					"success": false,
					"message": "task has incomplete prerequisites",
					"data":    gin.H{"blocked_by": blocked.Blockers},
				})
				return
			}
			if strings.Contains(err.Error(), "invalid status transition") {
				respondError(c, http.StatusBadRequest, err.Error())
				return
			}
			respondFailure(c, err)
			return
		}
		respondOK(c, t)
	}
}

func handleBlockTask(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := task.Block(s.DB, c.Param("id"))
		if err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, t)
	}
}

func handleResetTask(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := task.Reset(s.DB, c.Param("id"))
		if err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, t)
	}
}
