package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"jacc/internal/config"
	"jacc/internal/httputil"
	"jacc/internal/service/retrieval"
)

// AskHandler exposes the retrieval cascade
type AskHandler struct {
	cascade *retrieval.Cascade
	logger  *slog.Logger
}

// NewAskHandler creates a new ask handler
func NewAskHandler(cascade *retrieval.Cascade, logger *slog.Logger) *AskHandler {
	return &AskHandler{cascade: cascade, logger: logger}
}

type askRequest struct {
	Question string `json:"question"`
}

func (req askRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Question, validation.Required, validation.Length(1, config.MaxQuestionLength)),
	)
}

// Ask answers a question through the tiered cascade for the caller's
// role. The response always carries a provenance tag, including the
// all-tiers-missed case.
// POST /api/ask
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := h.cascade.Answer(r.Context(), req.Question, httputil.GetRole(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, answer)
}
