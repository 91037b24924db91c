package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pharmintel/core/internal/apperr"
	"github.com/pharmintel/core/internal/models"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleUpload ingests one multipart file under the "file" field.
func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, apperr.New(apperr.InvalidConfiguration, "multipart field %q is required", "file"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		abortWithError(c, err)
		return
	}

	doc, chunks, err := s.ingest.Ingest(c.Request.Context(), identity(c), fileHeader.Filename, mediaTypeOf(fileHeader.Header.Get("Content-Type"), fileHeader.Filename), data)
	if err != nil {
		s.logger.Warn("ingestion failed", zap.String("file", fileHeader.Filename), zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     doc.ID,
		"name":   doc.Name,
		"chunks": chunks,
	})
}

// mediaTypeOf prefers the declared content type and falls back to the
// file extension.
func mediaTypeOf(declared, filename string) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if i := strings.LastIndex(filename, "."); i >= 0 {
		if mt := mime.TypeByExtension(filename[i:]); mt != "" {
			return mt
		}
	}
	return declared
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.docs.ListDocuments(c.Request.Context(), identity(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	if err := s.docs.DeleteDocument(c.Request.Context(), c.Param("id"), identity(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, apperr.New(apperr.InvalidConfiguration, "question is required"))
		return
	}

	answer, err := s.rag.Ask(c.Request.Context(), c.Param("id"), identity(c), req.Question)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

type quizRequest struct {
	NumQuestions int `json:"num_questions"`
}

func (s *Server) handleQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, apperr.New(apperr.InvalidConfiguration, "invalid quiz request"))
		return
	}

	questions, err := s.rag.Quiz(c.Request.Context(), c.Param("id"), identity(c), req.NumQuestions)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (s *Server) handleListAlerts(c *gin.Context) {
	alerts, err := s.sources.ListAlerts(c.Request.Context(), 50)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (s *Server) handleScan(c *gin.Context) {
	report, err := s.scanner.ScanAll(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
