package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/hyperjump/yomu/internal/extract"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/session"
	"go.uber.org/zap"
)

// multipartMemory is how much of an upload is buffered in memory before spilling to disk.
const multipartMemory = 8 << 20

func (s *Server) handleSubmitDocument(w http.ResponseWriter, r *http.Request) {
	if limit := s.config.Extraction.MaxUploadBytes; limit > 0 {
		if r.ContentLength > limit {
			s.respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	s.logger.Debug("submit document request", zap.String("name", header.Filename), zap.Int("bytes", len(content)))
	if r.URL.Query().Get("summarize") == "false" {
		info, err := s.session.Submit(r.Context(), header.Filename, content)
		if err != nil {
			s.respondSessionError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, &models.SubmitResponse{Document: info})
		return
	}
	resp, err := s.session.Process(r.Context(), header.Filename, content)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	info := s.session.Document()
	if info == nil {
		s.respondError(w, http.StatusNotFound, session.MsgNoDocument)
		return
	}
	if withText, _ := strconv.ParseBool(r.URL.Query().Get("text")); withText {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"document": info,
			"text":     s.session.Text(),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.session.Summarize(r.Context())
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("question request", zap.String("query", req.Query))
	resp, asked := s.session.Ask(r.Context(), req.Query)
	if !asked {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	resp := &models.HistoryResponse{Turns: s.session.History()}
	if info := s.session.Document(); info != nil {
		resp.DocumentID = info.ID
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"busy":     s.session.Busy(),
		"turns":    len(s.session.History()),
		"document": s.session.Document(),
	}

	configInfo := map[string]interface{}{
		"generation_backend": s.config.Generation.Backend,
		"generation_model":   s.config.Generation.Model,
		"ocr_enabled":        s.config.Extraction.OCR.EnabledOrDefault(),
		"ocr_language":       s.config.Extraction.OCR.Language,
		"min_content_chars":  s.config.Extraction.MinContentChars,
		"max_document_chars": s.config.Context.MaxDocumentChars,
		"max_upload_bytes":   s.config.Extraction.MaxUploadBytes,
		"reject_concurrent":  s.config.Session.RejectConcurrent,
		"supported_formats":  extract.SupportedExtensions(),
	}
	if s.watch != nil {
		configInfo["watch_directory"] = s.watch.Directory()
		resp["watch_submitted"] = s.watch.Submitted()
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

// respondSessionError maps session and extraction failures to a status code; the body carries
// the user-visible diagnostic.
func (s *Server) respondSessionError(w http.ResponseWriter, err error) {
	var (
		unsupported *extract.UnsupportedFormatError
		extraction  *extract.ExtractionError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &unsupported):
		status = http.StatusUnsupportedMediaType
	case errors.As(err, &extraction):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, session.ErrNoDocument):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.respondError(w, status, session.Diagnostic(err))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
