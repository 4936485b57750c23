// Package handler is the HTTP presentation layer: it selects an encoder by
// format key, streams the returned artifact to the client, and accepts
// template imports. All content decisions live in the export and template
// packages; this layer only moves bytes.
package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizsmith/internal/export"
	"github.com/pavelanni/quizsmith/internal/model"
	"github.com/pavelanni/quizsmith/internal/normalize"
	"github.com/pavelanni/quizsmith/internal/store"
	"github.com/pavelanni/quizsmith/internal/template"
)

// maxImportBytes bounds template upload size.
const maxImportBytes = 8 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store *store.Store
}

// New creates a new Handler.
func New(s *store.Store) *Handler {
	return &Handler{store: s}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/formats", h.handleFormats)
	r.Get("/assessments", h.handleListAssessments)
	r.Get("/assessments/{assessmentID}/export/{format}", h.handleExport)
	r.Get("/assessments/{assessmentID}/template", h.handleTemplateExport)
	r.Post("/assessments/import", h.handleTemplateImport)
}

func (h *Handler) handleFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"formats": export.Formats()})
}

func (h *Handler) handleListAssessments(w http.ResponseWriter, _ *http.Request) {
	assessments, err := h.store.ListAssessments()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": assessments})
}

// loadAssessment reads metadata and raw records for one assessment and
// normalizes them into the canonical form the encoders expect.
func (h *Handler) loadAssessment(id int64) (model.Assessment, error) {
	a, err := h.store.GetAssessment(id)
	if err != nil {
		return a, err
	}
	raws, err := h.store.ListQuestionRaws(id)
	if err != nil {
		return a, err
	}
	a.Questions = normalize.Records(raws)
	return a, nil
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "assessmentID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid assessment id", http.StatusBadRequest)
		return
	}
	format := chi.URLParam(r, "format")

	a, err := h.loadAssessment(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	res, err := export.Encode(format, a)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename := SanitizeFilename(a.Title) + "." + res.Ext
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Questions-Written", strconv.Itoa(res.Rows))
	w.Header().Set("X-Questions-Skipped", strconv.Itoa(res.Skipped))
	if _, err := w.Write(res.Data); err != nil {
		slog.Error("write export response", "error", err)
	}
}

func (h *Handler) handleTemplateExport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "assessmentID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid assessment id", http.StatusBadRequest)
		return
	}
	a, err := h.loadAssessment(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	data, err := template.Marshal(template.Export(a))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	filename := SanitizeFilename(a.Title) + ".json"
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		slog.Error("write template response", "error", err)
	}
}

func (h *Handler) handleTemplateImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		http.Error(w, "read request body", http.StatusBadRequest)
		return
	}

	title := r.URL.Query().Get("title")
	a, problems := template.Import(data, title)
	if len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": problems})
		return
	}

	id, err := h.store.SaveAssessment(*a)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":             id,
		"title":          a.Title,
		"question_count": len(a.Questions),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode json response", "error", err)
	}
}

// maxFilenameLen caps generated download names.
const maxFilenameLen = 64

var nonWordChars = regexp.MustCompile(`[^\w\s-]`)

// SanitizeFilename turns a user-supplied title into a safe download name:
// non-word characters stripped, whitespace collapsed to underscores, length
// capped, with a default for empty results.
func SanitizeFilename(name string) string {
	name = nonWordChars.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), "_")
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	if name == "" {
		return "assessment"
	}
	return name
}
