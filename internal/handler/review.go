package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"jacc/internal/domain/models"
	"jacc/internal/httputil"
	"jacc/internal/service/review"
)

// ReviewHandler exposes the admin review and correction loop
type ReviewHandler struct {
	reviews *review.Service
	logger  *slog.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *review.Service, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

type recordReviewRequest struct {
	Status models.ReviewStatus `json:"status"`
	Notes  string              `json:"notes,omitempty"`
}

func (req recordReviewRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Status, validation.Required),
	)
}

// Record upserts the review record for a chat
// PUT /api/admin/chats/{chatID}/review
func (h *ReviewHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.reviews.RecordReview(r.Context(), r.PathValue("chatID"), req.Status, req.Notes, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Get returns a chat's review record
// GET /api/admin/chats/{chatID}/review
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.reviews.GetReview(r.Context(), r.PathValue("chatID"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

type addCorrectionRequest struct {
	MessageID        string `json:"message_id"`
	CorrectedContent string `json:"corrected_content"`
}

func (req addCorrectionRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.MessageID, validation.Required),
		validation.Field(&req.CorrectedContent, validation.Required),
	)
}

// AddCorrection attaches a corrected answer to an assistant message
// POST /api/admin/chats/{chatID}/corrections
func (h *ReviewHandler) AddCorrection(w http.ResponseWriter, r *http.Request) {
	var req addCorrectionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	correction, err := h.reviews.AddCorrection(r.Context(), r.PathValue("chatID"), req.MessageID, req.CorrectedContent, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, correction)
}

// Promote lifts a correction into the curated Q&A tier
// POST /api/admin/corrections/{id}/promote
func (h *ReviewHandler) Promote(w http.ResponseWriter, r *http.Request) {
	result, err := h.reviews.PromoteToCurated(r.Context(), r.PathValue("id"), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Stats aggregates review progress
// GET /api/admin/reviews/stats
func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reviews.Stats(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, stats)
}
