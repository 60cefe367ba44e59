package handler

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"jacc/internal/config"
	"jacc/internal/domain/models"
	"jacc/internal/httputil"
	"jacc/internal/service/catalog"
	"jacc/internal/service/ingest"
)

// DocumentHandler handles upload and document management requests
type DocumentHandler struct {
	ingest  *ingest.Service
	catalog *catalog.Service
	logger  *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(ingestSvc *ingest.Service, catalogSvc *catalog.Service, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingest:  ingestSvc,
		catalog: catalogSvc,
		logger:  logger,
	}
}

// Stage accepts a multipart batch and parks it under staging tickets
// POST /api/documents/stage
func (h *DocumentHandler) Stage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.MaxUploadBatchSize); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "no files in upload")
		return
	}

	files := make([]ingest.IncomingFile, 0, len(headers))
	for _, header := range headers {
		file, err := readUploadPart(header)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "unreadable file part: "+header.Filename)
			return
		}
		files = append(files, file)
	}

	result, err := h.ingest.Stage(r.Context(), files, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

func readUploadPart(header *multipart.FileHeader) (ingest.IncomingFile, error) {
	part, err := header.Open()
	if err != nil {
		return ingest.IncomingFile{}, err
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, config.MaxUploadFileSize+1))
	if err != nil {
		return ingest.IncomingFile{}, err
	}

	return ingest.IncomingFile{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

// placeRequest is the JSON body confirming staged tickets
type placeRequest struct {
	TicketIDs     []string               `json:"ticket_ids"`
	FolderID      *string                `json:"folder_id,omitempty"`
	RouteCategory string                 `json:"route_category,omitempty"`
	Permissions   models.PermissionPatch `json:"permissions"`
	ExpandZips    bool                   `json:"expand_zips"`
}

func (req placeRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.TicketIDs, validation.Required, validation.Length(1, 500)),
	)
}

// Place commits staged uploads into the corpus
// POST /api/documents/place
func (h *DocumentHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.ingest.Place(r.Context(), ingest.PlaceRequest{
		TicketIDs:     req.TicketIDs,
		FolderID:      req.FolderID,
		RouteCategory: req.RouteCategory,
		Permissions:   req.Permissions,
		ExpandZips:    req.ExpandZips,
		RequesterID:   httputil.GetUserID(r),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Get returns a document by ID
// GET /api/documents/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.catalog.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// List lists documents, filtered by folder when ?folder_id= is given.
// Absent folder_id lists unfiled documents.
// GET /api/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	var folderID *string
	if v := r.URL.Query().Get("folder_id"); v != "" {
		folderID = &v
	}

	docs, err := h.catalog.ListDocuments(r.Context(), folderID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}

// UpdatePermissions applies a partial permission update
// PATCH /api/documents/{id}/permissions
func (h *DocumentHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	var patch models.PermissionPatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, err)
		return
	}

	doc, err := h.catalog.UpdatePermissions(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Delete removes a document and its vector chunks
// DELETE /api/documents/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SweepStaging reclaims expired staged uploads, for an external cron
// POST /api/admin/staging/sweep
func (h *DocumentHandler) SweepStaging(w http.ResponseWriter, r *http.Request) {
	swept, err := h.ingest.SweepExpired(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"swept": swept,
	})
}
