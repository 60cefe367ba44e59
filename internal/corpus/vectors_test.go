package corpus

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jacc/internal/domain/models"
)

// stubEmbedder produces deterministic vectors so similarity ordering
// in tests depends only on text overlap, never on a live model.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 16)
	for i, b := range []byte(text) {
		vec[i%16] += float32(b) / 255.0
	}
	return vec, nil
}

func (s stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

func (stubEmbedder) Health(context.Context) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDocument(id string, perms models.PermissionSet) *models.Document {
	return &models.Document{
		ID:          id,
		DisplayName: id + ".pdf",
		Permissions: perms,
	}
}

func TestVectorStore_QueryFiltersExcludedRoles(t *testing.T) {
	ctx := context.Background()
	store := NewMemVectorStore(stubEmbedder{}, testLogger())

	adminOnly := testDocument("doc-admin", models.PermissionSet{
		AdminOnly: true,
	})
	agentVisible := testDocument("doc-agent", models.PermissionSet{
		AgentAccess: true,
	})

	require.NoError(t, store.AddDocumentChunks(ctx, adminOnly, []string{
		"internal escalation fee schedule for managers",
	}))
	require.NoError(t, store.AddDocumentChunks(ctx, agentVisible, []string{
		"standard towing rates and mileage charges",
	}))

	agentMatches, err := store.Query(ctx, "fee schedule", 10, models.RoleAgent, false)
	require.NoError(t, err)
	for _, m := range agentMatches {
		assert.NotEqual(t, "doc-admin", m.DocumentID,
			"restricted chunk leaked to agent query")
	}

	adminMatches, err := store.Query(ctx, "fee schedule", 10, models.RoleAdmin, false)
	require.NoError(t, err)
	ids := make([]string, 0, len(adminMatches))
	for _, m := range adminMatches {
		ids = append(ids, m.DocumentID)
	}
	assert.Contains(t, ids, "doc-admin")
}

func TestVectorStore_ViewAllVisibleToEveryRole(t *testing.T) {
	ctx := context.Background()
	store := NewMemVectorStore(stubEmbedder{}, testLogger())

	doc := testDocument("doc-open", models.PermissionSet{
		ViewAll:       true,
		ManagerAccess: true,
		AgentAccess:   true,
	})
	require.NoError(t, store.AddDocumentChunks(ctx, doc, []string{
		"company holiday coverage policy",
	}))

	for _, role := range []models.Role{models.RoleAdmin, models.RoleManager, models.RoleAgent} {
		matches, err := store.Query(ctx, "holiday policy", 5, role, false)
		require.NoError(t, err)
		require.NotEmpty(t, matches, "role %s saw no results", role)
		assert.Equal(t, "doc-open", matches[0].DocumentID)
	}
}

func TestVectorStore_TrainingOnlyExcludesUnflaggedChunks(t *testing.T) {
	ctx := context.Background()
	store := NewMemVectorStore(stubEmbedder{}, testLogger())

	flagged := testDocument("doc-training", models.PermissionSet{
		ViewAll:       true,
		ManagerAccess: true,
		AgentAccess:   true,
		TrainingData:  true,
	})
	unflagged := testDocument("doc-display", models.PermissionSet{
		ViewAll:       true,
		ManagerAccess: true,
		AgentAccess:   true,
	})

	require.NoError(t, store.AddDocumentChunks(ctx, flagged, []string{
		"dispatch workflow for after hours calls",
	}))
	require.NoError(t, store.AddDocumentChunks(ctx, unflagged, []string{
		"dispatch workflow for weekend calls",
	}))

	matches, err := store.Query(ctx, "dispatch workflow", 10, models.RoleAdmin, true)
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, "doc-training", m.DocumentID)
	}
}

func TestVectorStore_ReAddReplacesPreviousChunks(t *testing.T) {
	ctx := context.Background()
	store := NewMemVectorStore(stubEmbedder{}, testLogger())

	doc := testDocument("doc-1", models.PermissionSet{AgentAccess: true})
	require.NoError(t, store.AddDocumentChunks(ctx, doc, []string{"old content", "more old content"}))

	// Tighten permissions and re-vectorize
	doc.Permissions = models.PermissionSet{AdminOnly: true}
	require.NoError(t, store.AddDocumentChunks(ctx, doc, []string{"old content"}))

	matches, err := store.Query(ctx, "old content", 10, models.RoleAgent, false)
	require.NoError(t, err)
	assert.Empty(t, matches, "stale open-access chunks survived re-vectorization")
}

func TestVectorStore_DeleteDocumentRemovesAllChunks(t *testing.T) {
	ctx := context.Background()
	store := NewMemVectorStore(stubEmbedder{}, testLogger())

	doc := testDocument("doc-gone", models.PermissionSet{ViewAll: true, AgentAccess: true, ManagerAccess: true})
	require.NoError(t, store.AddDocumentChunks(ctx, doc, []string{"chunk one", "chunk two"}))
	require.NoError(t, store.DeleteDocument(ctx, "doc-gone"))

	matches, err := store.Query(ctx, "chunk", 10, models.RoleAdmin, false)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVectorStore_QueryEmptyStore(t *testing.T) {
	store := NewMemVectorStore(stubEmbedder{}, testLogger())

	matches, err := store.Query(context.Background(), "anything", 5, models.RoleAdmin, false)

	assert.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVectorStore_RejectsEmptyChunkSet(t *testing.T) {
	store := NewMemVectorStore(stubEmbedder{}, testLogger())

	err := store.AddDocumentChunks(context.Background(),
		testDocument("doc-empty", models.PermissionSet{}), nil)

	assert.Error(t, err)
}
