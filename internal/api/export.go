package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskflow/taskflow/internal/export"
)

func handleExport(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := export.Transcript(s.DB, c.Param("transcript_id"), c.Query("format"))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") {
				respondError(c, http.StatusBadRequest, err.Error())
				return
			}
			respondFailure(c, err)
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
		c.Data(http.StatusOK, res.ContentType, res.Data)
	}
}
