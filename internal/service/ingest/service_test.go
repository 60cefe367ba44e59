package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jacc/internal/corpus"
	"jacc/internal/domain"
	"jacc/internal/domain/models"
	"jacc/internal/domain/repositories"
)

// --- in-memory collaborators ---

type memDocRepo struct {
	docs map[string]models.Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[string]models.Document)}
}

func (r *memDocRepo) Create(_ context.Context, doc *models.Document) error {
	// The real repository returns a database-generated id
	doc.ID = fmt.Sprintf("doc-%d", len(r.docs)+1)
	doc.CreatedAt = time.Now().UTC()
	doc.UpdatedAt = doc.CreatedAt
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memDocRepo) GetByID(_ context.Context, id string) (*models.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (r *memDocRepo) GetContent(_ context.Context, id string) (string, error) {
	doc, ok := r.docs[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return doc.Content, nil
}

func (r *memDocRepo) ListByFolder(_ context.Context, folderID *string) ([]models.Document, error) {
	var out []models.Document
	for _, d := range r.docs {
		if folderID == nil && d.FolderID == nil {
			out = append(out, d)
		} else if folderID != nil && d.FolderID != nil && *d.FolderID == *folderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocRepo) FindByOriginalFilename(_ context.Context, filename string) ([]models.Document, error) {
	var out []models.Document
	for _, d := range r.docs {
		if d.OriginalFilename == filename {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocRepo) FindByContentHash(_ context.Context, hash string) ([]models.Document, error) {
	var out []models.Document
	for _, d := range r.docs {
		if d.ContentHash == hash {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocRepo) UpdatePermissions(_ context.Context, id string, perms models.PermissionSet) error {
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Permissions = perms
	r.docs[id] = doc
	return nil
}

func (r *memDocRepo) UpdateVectorStatus(_ context.Context, id string, status models.VectorizationStatus) error {
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.VectorStatus = status
	r.docs[id] = doc
	return nil
}

func (r *memDocRepo) UnassignFolder(_ context.Context, folderID string) error {
	for id, d := range r.docs {
		if d.FolderID != nil && *d.FolderID == folderID {
			d.FolderID = nil
			r.docs[id] = d
		}
	}
	return nil
}

func (r *memDocRepo) Delete(_ context.Context, id string) error {
	delete(r.docs, id)
	return nil
}

type memFolderRepo struct {
	folders map[string]models.Folder
}

func newMemFolderRepo() *memFolderRepo {
	return &memFolderRepo{folders: make(map[string]models.Folder)}
}

func (r *memFolderRepo) Create(_ context.Context, folder *models.Folder) error {
	r.folders[folder.ID] = *folder
	return nil
}

func (r *memFolderRepo) GetByID(_ context.Context, id string) (*models.Folder, error) {
	folder, ok := r.folders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &folder, nil
}

func (r *memFolderRepo) List(_ context.Context) ([]models.Folder, error) {
	var out []models.Folder
	for _, f := range r.folders {
		out = append(out, f)
	}
	return out, nil
}

func (r *memFolderRepo) FindByRouteCategory(_ context.Context, category string) ([]models.Folder, error) {
	var out []models.Folder
	for _, f := range r.folders {
		if f.RouteCategory == category {
			out = append(out, f)
		}
	}
	// highest priority first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Priority > out[i].Priority {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *memFolderRepo) Delete(_ context.Context, id string) error {
	delete(r.folders, id)
	return nil
}

type memStagingRepo struct {
	rows map[string]models.StagedUpload
}

func newMemStagingRepo() *memStagingRepo {
	return &memStagingRepo{rows: make(map[string]models.StagedUpload)}
}

func (r *memStagingRepo) Create(_ context.Context, staged *models.StagedUpload) error {
	staged.CreatedAt = time.Now().UTC()
	r.rows[staged.ID] = *staged
	return nil
}

func (r *memStagingRepo) GetUnexpired(_ context.Context, id string, now time.Time) (*models.StagedUpload, error) {
	row, ok := r.rows[id]
	if !ok || !row.ExpiresAt.After(now) {
		return nil, fmt.Errorf("staging ticket %s: %w", id, domain.ErrStagingExpired)
	}
	return &row, nil
}

func (r *memStagingRepo) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(r.rows, id)
	}
	return nil
}

func (r *memStagingRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var swept int64
	for id, row := range r.rows {
		if !row.ExpiresAt.After(now) {
			delete(r.rows, id)
			swept++
		}
	}
	return swept, nil
}

// passTxm runs the function without a real transaction
type passTxm struct{}

func (passTxm) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 8)
	for i, b := range []byte(text) {
		vec[i%8] += float32(b)
	}
	return vec, nil
}

func (s stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i], _ = s.Embed(ctx, t)
	}
	return vecs, nil
}

func (stubEmbedder) Health(context.Context) error { return nil }

type fixture struct {
	svc     *Service
	docs    *memDocRepo
	folders *memFolderRepo
	staging *memStagingRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := newMemDocRepo()
	folders := newMemFolderRepo()
	staging := newMemStagingRepo()

	curated, err := corpus.NewMemCurated()
	require.NoError(t, err)
	t.Cleanup(func() { curated.Close() })

	vectors := corpus.NewMemVectorStore(stubEmbedder{}, logger)
	vectorizer := corpus.NewVectorizer(docs, vectors, logger)
	index := corpus.NewIndex(curated, vectors, nil, vectorizer, logger)

	svc := NewService(docs, folders, staging, passTxm{}, index, logger)

	return &fixture{svc: svc, docs: docs, folders: folders, staging: staging}
}

func textFile(name, content string) IncomingFile {
	return IncomingFile{Filename: name, MimeType: "text/plain", Data: []byte(content)}
}

func (f *fixture) stageAndPlace(t *testing.T, files []IncomingFile) *PlaceResult {
	t.Helper()

	staged, err := f.svc.Stage(context.Background(), files, "user-1")
	require.NoError(t, err)

	tickets := make([]string, 0, len(staged.Staged))
	for _, s := range staged.Staged {
		tickets = append(tickets, s.TicketID)
	}
	for _, d := range staged.Duplicates {
		tickets = append(tickets, d.TicketID)
	}

	placed, err := f.svc.Place(context.Background(), PlaceRequest{
		TicketIDs:   tickets,
		RequesterID: "user-1",
	})
	require.NoError(t, err)
	return placed
}

// --- stage ---

func TestStage_ScenarioPartialBatch(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Stage(context.Background(), []IncomingFile{
		textFile("one.txt", "alpha"),
		{Filename: "tool.exe", MimeType: "application/x-msdownload", Data: []byte{0x4d, 0x5a}},
		textFile("three.txt", "gamma"),
	}, "user-1")

	require.NoError(t, err)
	assert.Len(t, result.Staged, 2)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "tool.exe", result.Rejected[0].Filename)
	assert.Equal(t, ReasonInvalidType, result.Rejected[0].Reason)
	assert.Empty(t, result.Duplicates)
}

func TestStage_OneOutcomePerFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.docs.Create(context.Background(), &models.Document{
		ID:               "doc-existing",
		OriginalFilename: "rates.pdf",
		DisplayName:      "rates",
	}))

	files := []IncomingFile{
		textFile("fresh.txt", "new content"),
		{Filename: "tool.exe", MimeType: "application/x-msdownload", Data: []byte{0x01}},
		{Filename: "rates.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.4 fake")},
		{Filename: "empty.txt", MimeType: "text/plain", Data: nil},
	}

	result, err := f.svc.Stage(context.Background(), files, "user-1")

	require.NoError(t, err)
	total := len(result.Staged) + len(result.Rejected) + len(result.Duplicates)
	assert.Equal(t, len(files), total, "every input file must land in exactly one list")
	assert.Len(t, result.Staged, 1)
	assert.Len(t, result.Rejected, 2)
	assert.Len(t, result.Duplicates, 1)
}

func TestStage_OversizedFileRejected(t *testing.T) {
	f := newFixture(t)

	big := make([]byte, 26<<20)
	result, err := f.svc.Stage(context.Background(), []IncomingFile{
		{Filename: "huge.txt", MimeType: "text/plain", Data: big},
	}, "user-1")

	require.NoError(t, err)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, ReasonTooLarge, result.Rejected[0].Reason)
}

func TestStage_DuplicateFilenameWarnsButStages(t *testing.T) {
	f := newFixture(t)
	content := []byte("%PDF-1.4 existing bytes")
	require.NoError(t, f.docs.Create(context.Background(), &models.Document{
		ID:               "doc-existing",
		OriginalFilename: "rates.pdf",
		DisplayName:      "rates",
		ContentHash:      hashBytes(content),
	}))

	result, err := f.svc.Stage(context.Background(), []IncomingFile{
		{Filename: "rates.pdf", MimeType: "application/pdf", Data: content},
	}, "user-1")

	require.NoError(t, err)
	require.Len(t, result.Duplicates, 1)
	dup := result.Duplicates[0]
	assert.Equal(t, "doc-existing", dup.ExistingDocumentID)
	assert.True(t, dup.ContentMatch, "identical bytes should upgrade the warning")
	assert.NotEmpty(t, dup.TicketID, "duplicates still stage; the caller decides")

	// Caller confirms anyway
	placed, err := f.svc.Place(context.Background(), PlaceRequest{
		TicketIDs:   []string{dup.TicketID},
		RequesterID: "user-1",
	})
	require.NoError(t, err)
	assert.Len(t, placed.Placed, 1)
}

func TestStage_DifferentBytesSameNameIsNameOnlyWarning(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.docs.Create(context.Background(), &models.Document{
		ID:               "doc-existing",
		OriginalFilename: "rates.pdf",
		ContentHash:      hashBytes([]byte("old bytes")),
	}))

	result, err := f.svc.Stage(context.Background(), []IncomingFile{
		{Filename: "rates.pdf", MimeType: "application/pdf", Data: []byte("new bytes")},
	}, "user-1")

	require.NoError(t, err)
	require.Len(t, result.Duplicates, 1)
	assert.False(t, result.Duplicates[0].ContentMatch)
}

// --- place ---

func TestPlace_CommitsDocumentsAndConsumesTickets(t *testing.T) {
	f := newFixture(t)

	result := f.stageAndPlace(t, []IncomingFile{
		textFile("guide.txt", "Towing dispatch guide."),
	})

	require.Len(t, result.Placed, 1)
	assert.Equal(t, "guide", result.Placed[0].DisplayName)
	assert.Empty(t, f.staging.rows, "consumed tickets must be deleted")

	doc, err := f.docs.GetByID(context.Background(), result.Placed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.VectorizationPending, doc.VectorStatus)
	assert.Equal(t, "Towing dispatch guide.", doc.Content)
	assert.True(t, doc.Permissions.ViewAll, "defaults apply when no patch given")
}

func TestPlace_ExpiredTicketRejectedOthersProceed(t *testing.T) {
	f := newFixture(t)

	staged, err := f.svc.Stage(context.Background(), []IncomingFile{
		textFile("keep.txt", "still valid"),
	}, "user-1")
	require.NoError(t, err)

	// Manufacture an already-expired row
	expired := models.StagedUpload{
		ID:               "ticket-expired",
		OriginalFilename: "stale.txt",
		MimeType:         "text/plain",
		Data:             []byte("stale"),
		ExpiresAt:        time.Now().Add(-time.Hour),
	}
	f.staging.rows[expired.ID] = expired

	result, err := f.svc.Place(context.Background(), PlaceRequest{
		TicketIDs:   []string{staged.Staged[0].TicketID, expired.ID},
		RequesterID: "user-1",
	})

	require.NoError(t, err)
	assert.Len(t, result.Placed, 1)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, ReasonStagingExpired, result.Rejected[0].Reason)
}

func TestPlace_NormalizesPermissionPatch(t *testing.T) {
	f := newFixture(t)

	staged, err := f.svc.Stage(context.Background(), []IncomingFile{
		textFile("internal.txt", "fee schedule"),
	}, "admin-1")
	require.NoError(t, err)

	adminOnly := true
	result, err := f.svc.Place(context.Background(), PlaceRequest{
		TicketIDs:   []string{staged.Staged[0].TicketID},
		Permissions: models.PermissionPatch{AdminOnly: &adminOnly},
		RequesterID: "admin-1",
	})
	require.NoError(t, err)
	require.Len(t, result.Placed, 1)

	doc, err := f.docs.GetByID(context.Background(), result.Placed[0].ID)
	require.NoError(t, err)
	assert.True(t, doc.Permissions.AdminOnly)
	assert.False(t, doc.Permissions.ViewAll)
	assert.False(t, doc.Permissions.ManagerAccess)
	assert.False(t, doc.Permissions.AgentAccess)
}

func TestPlace_RoutesByCategoryWithPriorityTieBreak(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.folders.Create(context.Background(), &models.Folder{
		ID: "folder-low", Name: "Old processor docs", RouteCategory: "processor", Priority: 1,
	}))
	require.NoError(t, f.folders.Create(context.Background(), &models.Folder{
		ID: "folder-high", Name: "Processor docs", RouteCategory: "processor", Priority: 8,
	}))

	staged, err := f.svc.Stage(context.Background(), []IncomingFile{
		textFile("clover.txt", "Clover rates"),
	}, "user-1")
	require.NoError(t, err)

	result, err := f.svc.Place(context.Background(), PlaceRequest{
		TicketIDs:     []string{staged.Staged[0].TicketID},
		RouteCategory: "processor",
		RequesterID:   "user-1",
	})
	require.NoError(t, err)
	require.Len(t, result.Placed, 1)
	require.NotNil(t, result.Placed[0].FolderID)
	assert.Equal(t, "folder-high", *result.Placed[0].FolderID)
}

func TestPlace_ExplicitFolderMustExist(t *testing.T) {
	f := newFixture(t)

	staged, err := f.svc.Stage(context.Background(), []IncomingFile{
		textFile("doc.txt", "content"),
	}, "user-1")
	require.NoError(t, err)

	missing := "folder-missing"
	_, err = f.svc.Place(context.Background(), PlaceRequest{
		TicketIDs:   []string{staged.Staged[0].TicketID},
		FolderID:    &missing,
		RequesterID: "user-1",
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlace_ExpandsZipWithPerMemberValidation(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("docs/guide.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("towing guide"))
	require.NoError(t, err)
	w, err = zw.Create("docs/tool.exe")
	require.NoError(t, err)
	_, err = w.Write([]byte{0x4d, 0x5a})
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	staged, err := f.svc.Stage(context.Background(), []IncomingFile{
		{Filename: "bundle.zip", MimeType: "application/zip", Data: buf.Bytes()},
	}, "user-1")
	require.NoError(t, err)
	require.Len(t, staged.Staged, 1)

	result, err := f.svc.Place(context.Background(), PlaceRequest{
		TicketIDs:   []string{staged.Staged[0].TicketID},
		ExpandZips:  true,
		RequesterID: "user-1",
	})

	require.NoError(t, err)
	require.Len(t, result.Placed, 1)
	assert.Equal(t, "guide", result.Placed[0].DisplayName)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "tool.exe", result.Rejected[0].Filename)
	assert.Equal(t, ReasonInvalidType, result.Rejected[0].Reason)
}

func TestPlace_CorruptZipRejectedAsOneUnit(t *testing.T) {
	f := newFixture(t)

	staged, err := f.svc.Stage(context.Background(), []IncomingFile{
		{Filename: "broken.zip", MimeType: "application/zip", Data: []byte("not a zip at all")},
	}, "user-1")
	require.NoError(t, err)

	result, err := f.svc.Place(context.Background(), PlaceRequest{
		TicketIDs:   []string{staged.Staged[0].TicketID},
		ExpandZips:  true,
		RequesterID: "user-1",
	})

	require.NoError(t, err)
	assert.Empty(t, result.Placed)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, ReasonBadArchive, result.Rejected[0].Reason)
	assert.Empty(t, f.staging.rows, "bad archives are consumed, not retried")
}

// --- sweep ---

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)

	f.staging.rows["live"] = models.StagedUpload{ID: "live", ExpiresAt: time.Now().Add(time.Hour)}
	f.staging.rows["stale"] = models.StagedUpload{ID: "stale", ExpiresAt: time.Now().Add(-time.Minute)}

	swept, err := f.svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)
	assert.Contains(t, f.staging.rows, "live")
}
