package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/laithdarras/universal-kg/internal/core/model"
	"github.com/laithdarras/universal-kg/internal/ingest"
)

type IngestRequest struct {
	URLs []string `json:"urls" binding:"required,min=1"`
}

type IngestTextRequest struct {
	Text   string `json:"text" binding:"required"`
	Source string `json:"source"`
}

type TriplesRequest struct {
	Triples []model.Triple `json:"triples" binding:"required"`
}

type QARequest struct {
	Question string `json:"question"`
}

var errTooLarge = errors.New("upload too large")

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidQuery),
		errors.Is(err, model.ErrInvalidEntity),
		errors.Is(err, model.ErrInvalidTriple),
		errors.Is(err, model.ErrDegenerateTriple),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, ingest.ErrEmptyDocument),
		errors.Is(err, ingest.ErrCorruptDocument):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.Log.Error("request failed", "path", c.Request.URL.Path, "error", err)
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}

func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": apiName, "version": apiVersion})
}

func (s *Server) Health(c *gin.Context) {
	nodes, edges := s.Engine.Stats()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "nodes": nodes, "edges": edges})
}

// respondWithGraph writes the snapshot after an ingest, with the batch
// counters in headers.
func (s *Server) respondWithGraph(c *gin.Context, res model.BatchResult) {
	c.Header(headerApplied, strconv.Itoa(res.Applied()))
	c.Header(headerSkipped, strconv.Itoa(res.Skipped))
	c.JSON(http.StatusOK, s.Engine.Snapshot())
}

func (s *Server) IngestURLs(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: urls are required"})
		return
	}

	res, err := s.Engine.IngestURLs(c.Request.Context(), req.URLs)
	if err != nil {
		s.Log.Warn("some urls could not be ingested", "error", err)
	}
	s.respondWithGraph(c, res)
}

func (s *Server) IngestFile(c *gin.Context) {
	limit := s.Config.Server.MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.fail(c, fmt.Errorf("%w: limit is %d bytes", errTooLarge, limit))
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: multipart field 'file' is required"})
		return
	}
	if header.Size > limit {
		s.fail(c, fmt.Errorf("%w: limit is %d bytes", errTooLarge, limit))
		return
	}

	f, err := header.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	text, err := ingest.ParseFile(header.Filename, data)
	if err != nil {
		s.fail(c, err)
		return
	}
	res := s.Engine.IngestText(c.Request.Context(), header.Filename, text)
	s.respondWithGraph(c, res)
}

func (s *Server) IngestText(c *gin.Context) {
	var req IngestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: text is required"})
		return
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "text"
	}
	res := s.Engine.IngestText(c.Request.Context(), source, req.Text)
	s.respondWithGraph(c, res)
}

func (s *Server) ApplyTriples(c *gin.Context) {
	var req TriplesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: triples are required"})
		return
	}
	c.JSON(http.StatusOK, s.Engine.ApplyTriples(c.Request.Context(), req.Triples))
}

func (s *Server) Graph(c *gin.Context) {
	c.JSON(http.StatusOK, s.Engine.Snapshot())
}

func (s *Server) Node(c *gin.Context) {
	n, err := s.Engine.Node(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) EdgeExists(c *gin.Context) {
	source, target, relation := c.Query("source"), c.Query("target"), c.Query("relation")
	if source == "" || target == "" || relation == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: source, target and relation are required"})
		return
	}
	ok, err := s.Engine.HasEdge(source, target, relation)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": ok})
}

func (s *Server) Communities(c *gin.Context) {
	communities, err := s.Engine.Communities(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"communities": communities})
}

func (s *Server) QA(c *gin.Context) {
	var req QARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	ans, err := s.Engine.Answer(c.Request.Context(), req.Question)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ans)
}
