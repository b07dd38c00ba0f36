package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/document"
	"github.com/dgallion1/brandgest/internal/questionnaire"
)

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	c := s.orchestrator.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": c.Questions(),
		"headers":   c.Headers(),
	})
}

// handleExtract parses an uploaded questionnaire and returns its records
// without calling the model.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if data == nil {
		jsonError(w, "Please upload one document.", http.StatusBadRequest)
		return
	}

	p, err := document.ForFile(filename, document.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Warn("extract parse failed", zap.String("filename", filename), zap.Error(err))
		jsonError(w, "failed to parse document: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	records := questionnaire.Extract(doc.Paragraphs, s.orchestrator.Catalog())
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": filename,
		"title":    doc.Title,
		"count":    len(records),
		"records":  records,
	})
}

// readUpload reads the optional "file" part. A missing part yields nil data
// and ok=true. On any other problem the response is written and ok is false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return "", nil, true
	}
	if err != nil {
		jsonError(w, "invalid file: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !document.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return "", nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return filename, data, true
}
