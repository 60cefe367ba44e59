package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"jacc/internal/config"
	"jacc/internal/corpus"
	"jacc/internal/domain/models"
	"jacc/internal/httputil"
)

// FAQHandler handles curated Q&A management and search
type FAQHandler struct {
	index  *corpus.Index
	logger *slog.Logger
}

// NewFAQHandler creates a new FAQ handler
func NewFAQHandler(index *corpus.Index, logger *slog.Logger) *FAQHandler {
	return &FAQHandler{index: index, logger: logger}
}

type upsertFAQRequest struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
	Priority int      `json:"priority"`
	IsActive *bool    `json:"is_active,omitempty"`
}

func (req upsertFAQRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Question, validation.Required, validation.Length(1, config.MaxQuestionLength)),
		validation.Field(&req.Answer, validation.Required),
		validation.Field(&req.Category, validation.Required, validation.Length(1, config.MaxDisplayNameLength)),
		validation.Field(&req.Priority, validation.Min(0), validation.Max(config.MaxFAQPriority)),
	)
}

// Upsert creates or updates a curated entry, keyed by question and
// category. 201 on create, 200 on in-place update.
// POST /api/admin/faqs
func (h *FAQHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertFAQRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	entry := &models.FAQEntry{
		Question:  req.Question,
		Answer:    req.Answer,
		Category:  req.Category,
		Tags:      req.Tags,
		IsActive:  active,
		Priority:  req.Priority,
		CreatedBy: httputil.GetUserID(r),
	}

	created, err := h.index.UpsertCurated(r.Context(), entry)
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, entry)
}

// Search matches curated entries by lexical relevance
// GET /api/faqs/search?q=...
func (h *FAQHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httputil.RespondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	matches, err := h.index.QueryCurated(r.Context(), query, 10)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
	})
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetActive toggles an entry in or out of Tier-1 retrieval
// PATCH /api/admin/faqs/{id}/active
func (h *FAQHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	if err := h.index.SetCuratedActive(r.Context(), r.PathValue("id"), req.IsActive); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
