package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"jacc/internal/config"
	"jacc/internal/domain/models"
	"jacc/internal/httputil"
	"jacc/internal/service/catalog"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	catalog *catalog.Service
	logger  *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(catalogSvc *catalog.Service, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{catalog: catalogSvc, logger: logger}
}

type createFolderRequest struct {
	Name           string  `json:"name"`
	ParentID       *string `json:"parent_id,omitempty"`
	RouteNamespace string  `json:"route_namespace,omitempty"`
	RouteCategory  string  `json:"route_category,omitempty"`
	Priority       int     `json:"priority,omitempty"`
}

func (req createFolderRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxDisplayNameLength)),
		validation.Field(&req.Priority, validation.Min(0), validation.Max(config.MaxFAQPriority)),
	)
}

// Create creates a folder
// POST /api/folders
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.catalog.CreateFolder(r.Context(), &models.Folder{
		Name:           req.Name,
		OwnerID:        httputil.GetUserID(r),
		ParentID:       req.ParentID,
		RouteNamespace: req.RouteNamespace,
		RouteCategory:  req.RouteCategory,
		Priority:       req.Priority,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// Get returns a folder by ID
// GET /api/folders/{id}
func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	folder, err := h.catalog.GetFolder(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// List lists all folders
// GET /api/folders
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	folders, err := h.catalog.ListFolders(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"folders": folders,
	})
}

// Delete removes a folder, unassigning its documents
// DELETE /api/folders/{id}
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteFolder(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
