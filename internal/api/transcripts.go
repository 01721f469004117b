package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskflow/taskflow/internal/transcript"
)

type createTranscriptRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func handleCreateTranscript(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTranscriptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		res, err := transcript.Create(s.DB, transcript.CreateOpts{
			Filename: req.Filename,
			Content:  req.Content,
		})
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		payload := gin.H{"transcript": res.Transcript, "is_duplicate": res.Duplicate}
		if res.Duplicate {
			respondOK(c, payload)
			return
		}
		respondCreated(c, payload)
	}
}

func handleListTranscripts(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		transcripts, err := transcript.List(s.DB)
		if err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, transcripts)
	}
}

func handleGetTranscript(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		tr, err := transcript.Get(s.DB, c.Param("id"))
		if err != nil {
			respondFailure(c, err)
			return
		}
		respondOK(c, tr)
	}
}
