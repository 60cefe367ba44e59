// Package ingest runs the two-phase upload pipeline: Stage validates
// and parks file bytes under a short-lived ticket, Place confirms
// folder and permissions and commits documents to the corpus. Partial
// failure is a normal response shape; only storage errors abort.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"jacc/internal/config"
	"jacc/internal/corpus"
	"jacc/internal/domain"
	"jacc/internal/domain/models"
	"jacc/internal/domain/repositories"
	"jacc/internal/permissions"
)

// Rejection reasons reported per file
const (
	ReasonInvalidType    = "invalid-type"
	ReasonTooLarge       = "too-large"
	ReasonEmpty          = "empty"
	ReasonStagingExpired = "staging-expired"
	ReasonBadArchive     = "bad-archive"
)

// IncomingFile is one file from an upload request
type IncomingFile struct {
	Filename string
	MimeType string
	Data     []byte
}

// StagedTicket identifies a parked upload awaiting placement
type StagedTicket struct {
	TicketID    string    `json:"ticket_id"`
	Filename    string    `json:"filename"`
	DisplayName string    `json:"display_name"`
	SizeBytes   int64     `json:"size_bytes"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Rejection reports a file that failed validation
type Rejection struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// DuplicateWarning flags a staged file that collides with the corpus.
// The file is still staged; the caller decides whether to place it.
type DuplicateWarning struct {
	StagedTicket
	ExistingDocumentID string `json:"existing_document_id"`
	ExistingName       string `json:"existing_name"`
	ContentMatch       bool   `json:"content_match"`
}

// StageResult is the combined per-file summary of a stage call. Every
// input file lands in exactly one of the three lists.
type StageResult struct {
	Staged     []StagedTicket     `json:"staged"`
	Rejected   []Rejection        `json:"rejected"`
	Duplicates []DuplicateWarning `json:"duplicates"`
}

// PlacedDocument is one committed document
type PlacedDocument struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	FolderID    *string `json:"folder_id,omitempty"`
}

// PlaceRequest confirms staged tickets into the corpus
type PlaceRequest struct {
	TicketIDs     []string
	FolderID      *string
	RouteCategory string
	Permissions   models.PermissionPatch
	ExpandZips    bool
	RequesterID   string
}

// PlaceResult summarizes a placement
type PlaceResult struct {
	Placed   []PlacedDocument `json:"placed"`
	Rejected []Rejection      `json:"rejected"`
}

// Service is the ingestion pipeline
type Service struct {
	docs    repositories.DocumentRepository
	folders repositories.FolderRepository
	staging repositories.StagingRepository
	txm     repositories.TransactionManager
	index   *corpus.Index
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates the ingestion pipeline
func NewService(
	docs repositories.DocumentRepository,
	folders repositories.FolderRepository,
	staging repositories.StagingRepository,
	txm repositories.TransactionManager,
	index *corpus.Index,
	logger *slog.Logger,
) *Service {
	return &Service{
		docs:    docs,
		folders: folders,
		staging: staging,
		txm:     txm,
		index:   index,
		logger:  logger,
		now:     time.Now,
	}
}

// Stage validates each file, parks accepted bytes under a ticket, and
// reports duplicates against the existing corpus. Validation failures
// are per-file; a storage failure aborts the whole call.
func (s *Service) Stage(ctx context.Context, files []IncomingFile, uploadedBy string) (*StageResult, error) {
	if len(files) == 0 {
		return nil, &domain.ValidationError{Message: "no files in upload"}
	}

	result := &StageResult{
		Staged:     []StagedTicket{},
		Rejected:   []Rejection{},
		Duplicates: []DuplicateWarning{},
	}

	expiresAt := s.now().Add(config.StagingTTLMinutes * time.Minute)

	for _, file := range files {
		if reason := validateFile(file); reason != "" {
			result.Rejected = append(result.Rejected, Rejection{
				Filename: file.Filename,
				Reason:   reason,
			})
			continue
		}

		hash := hashBytes(file.Data)

		staged := &models.StagedUpload{
			ID:               uuid.New().String(),
			OriginalFilename: file.Filename,
			DisplayName:      defaultDisplayName(file.Filename),
			MimeType:         file.MimeType,
			SizeBytes:        int64(len(file.Data)),
			ContentHash:      hash,
			Data:             file.Data,
			UploadedBy:       uploadedBy,
			ExpiresAt:        expiresAt,
		}

		if err := s.staging.Create(ctx, staged); err != nil {
			return nil, fmt.Errorf("stage %s: %w", file.Filename, err)
		}

		ticket := StagedTicket{
			TicketID:    staged.ID,
			Filename:    staged.OriginalFilename,
			DisplayName: staged.DisplayName,
			SizeBytes:   staged.SizeBytes,
			ExpiresAt:   staged.ExpiresAt,
		}

		if dup := s.findDuplicate(ctx, file.Filename, hash); dup != nil {
			dup.StagedTicket = ticket
			result.Duplicates = append(result.Duplicates, *dup)
			continue
		}

		result.Staged = append(result.Staged, ticket)
	}

	s.logger.Info("upload staged",
		"staged", len(result.Staged),
		"rejected", len(result.Rejected),
		"duplicates", len(result.Duplicates),
		"uploaded_by", uploadedBy,
	)

	return result, nil
}

// findDuplicate checks the corpus for an existing document with the
// same original filename. A matching content hash upgrades the warning
// to an exact-copy flag; neither case blocks placement.
func (s *Service) findDuplicate(ctx context.Context, filename, hash string) *DuplicateWarning {
	existing, err := s.docs.FindByOriginalFilename(ctx, filename)
	if err != nil {
		s.logger.Warn("duplicate check failed, proceeding without warning",
			"filename", filename, "error", err)
		return nil
	}
	if len(existing) == 0 {
		return nil
	}

	warning := &DuplicateWarning{
		ExistingDocumentID: existing[0].ID,
		ExistingName:       existing[0].DisplayName,
	}
	for _, doc := range existing {
		if doc.ContentHash == hash {
			warning.ExistingDocumentID = doc.ID
			warning.ExistingName = doc.DisplayName
			warning.ContentMatch = true
			break
		}
	}

	return warning
}

// Place commits staged tickets into the corpus. The target folder is
// the explicit ID when given, else the best routing match for the
// category, else unfiled. Zip archives are expanded member by member
// when ExpandZips is set, each member re-entering validation. All
// document rows commit in one transaction; vectorization is dispatched
// after commit for documents whose normalized flags request it.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if len(req.TicketIDs) == 0 {
		return nil, &domain.ValidationError{Message: "no staging tickets in request"}
	}

	folderID, err := s.resolveFolder(ctx, req.FolderID, req.RouteCategory)
	if err != nil {
		return nil, err
	}

	perms := permissions.Normalize(permissions.Defaults(), req.Permissions)

	result := &PlaceResult{
		Placed:   []PlacedDocument{},
		Rejected: []Rejection{},
	}

	var placed []*models.Document

	err = s.txm.ExecTx(ctx, func(txCtx context.Context) error {
		consumed := make([]string, 0, len(req.TicketIDs))

		for _, ticketID := range req.TicketIDs {
			staged, err := s.staging.GetUnexpired(txCtx, ticketID, s.now())
			if err != nil {
				if isExpired(err) {
					result.Rejected = append(result.Rejected, Rejection{
						Filename: ticketID,
						Reason:   ReasonStagingExpired,
					})
					continue
				}
				return err
			}

			files := []IncomingFile{{
				Filename: staged.OriginalFilename,
				MimeType: staged.MimeType,
				Data:     staged.Data,
			}}

			if req.ExpandZips && isZip(staged.MimeType) {
				members, badArchive := expandZip(staged.Data)
				if badArchive != nil {
					result.Rejected = append(result.Rejected, Rejection{
						Filename: staged.OriginalFilename,
						Reason:   ReasonBadArchive,
					})
					consumed = append(consumed, ticketID)
					continue
				}
				files = members
			}

			for _, file := range files {
				if reason := validateFile(file); reason != "" {
					result.Rejected = append(result.Rejected, Rejection{
						Filename: file.Filename,
						Reason:   reason,
					})
					continue
				}

				doc := &models.Document{
					OriginalFilename: file.Filename,
					DisplayName:      defaultDisplayName(file.Filename),
					FolderID:         folderID,
					ContentHash:      hashBytes(file.Data),
					SizeBytes:        int64(len(file.Data)),
					MimeType:         file.MimeType,
					Permissions:      perms,
					VectorStatus:     models.VectorizationPending,
					OwnerID:          req.RequesterID,
					Content:          extractText(file.MimeType, file.Data),
				}

				if err := s.docs.Create(txCtx, doc); err != nil {
					return err
				}

				placed = append(placed, doc)
				result.Placed = append(result.Placed, PlacedDocument{
					ID:          doc.ID,
					DisplayName: doc.DisplayName,
					FolderID:    doc.FolderID,
				})
			}

			consumed = append(consumed, ticketID)
		}

		return s.staging.Delete(txCtx, consumed)
	})
	if err != nil {
		return nil, fmt.Errorf("place staged uploads: %w", err)
	}

	// Fire-and-forget relative to placement: documents are queryable
	// now and enter Tier-2 retrieval when their job completes
	if perms.AutoVectorize {
		for _, doc := range placed {
			s.index.EnqueueVectorize(doc.ID)
		}
	}

	s.logger.Info("upload placed",
		"placed", len(result.Placed),
		"rejected", len(result.Rejected),
		"auto_vectorize", perms.AutoVectorize,
		"requester", req.RequesterID,
	)

	return result, nil
}

// SweepExpired reclaims staging rows past expiry
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.staging.DeleteExpired(ctx, s.now())
}

// resolveFolder picks the placement target: explicit folder first,
// then the highest-priority routing match for the category, else
// unfiled.
func (s *Service) resolveFolder(ctx context.Context, folderID *string, routeCategory string) (*string, error) {
	if folderID != nil {
		folder, err := s.folders.GetByID(ctx, *folderID)
		if err != nil {
			return nil, err
		}
		return &folder.ID, nil
	}

	if routeCategory != "" {
		matches, err := s.folders.FindByRouteCategory(ctx, routeCategory)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			return &matches[0].ID, nil
		}
	}

	return nil, nil
}

func validateFile(file IncomingFile) string {
	if len(file.Data) == 0 {
		return ReasonEmpty
	}
	if int64(len(file.Data)) > config.MaxUploadFileSize {
		return ReasonTooLarge
	}
	if !config.AllowedMIMETypes[file.MimeType] {
		return ReasonInvalidType
	}
	return ""
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// defaultDisplayName strips the extension from the original filename
func defaultDisplayName(filename string) string {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return base
	}
	if len(name) > config.MaxDisplayNameLength {
		name = name[:config.MaxDisplayNameLength]
	}
	return name
}

func isZip(mimeType string) bool {
	return mimeType == "application/zip" || mimeType == "application/x-zip-compressed"
}

func isExpired(err error) bool {
	return errors.Is(err, domain.ErrStagingExpired)
}
