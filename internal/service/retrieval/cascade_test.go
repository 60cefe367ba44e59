package retrieval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jacc/internal/config"
	"jacc/internal/corpus"
	"jacc/internal/domain/models"
	"jacc/internal/search/external"
)

// stubEmbedder gives deterministic vectors without a live model
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

// stubSynthesizer echoes the first passage, or fails when told to
type stubSynthesizer struct {
	fail bool
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ string, passages []string) (string, error) {
	if s.fail {
		return "", fmt.Errorf("model unavailable")
	}
	return "synthesized: " + passages[0], nil
}

// stubSearchClient returns canned results or a canned error
type stubSearchClient struct {
	results []external.SearchResult
	err     error
	delay   time.Duration
	called  bool
}

func (s *stubSearchClient) Search(ctx context.Context, query string, _ external.SearchOptions) (*external.SearchResponse, error) {
	s.called = true
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &external.SearchResponse{Results: s.results, Query: query}, nil
}

// memFAQRepo is an in-memory FAQRepository for wiring the corpus index
type memFAQRepo struct {
	entries map[string]models.FAQEntry
}

func newMemFAQRepo() *memFAQRepo {
	return &memFAQRepo{entries: make(map[string]models.FAQEntry)}
}

func (r *memFAQRepo) Upsert(_ context.Context, entry *models.FAQEntry) (bool, error) {
	for id, existing := range r.entries {
		if existing.Question == entry.Question && existing.Category == entry.Category {
			entry.ID = id
			entry.UpdatedAt = time.Now().UTC()
			r.entries[id] = *entry
			return false, nil
		}
	}
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("faq-%d", len(r.entries)+1)
	}
	entry.UpdatedAt = time.Now().UTC()
	r.entries[entry.ID] = *entry
	return true, nil
}

func (r *memFAQRepo) GetByID(_ context.Context, id string) (*models.FAQEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return &entry, nil
}

func (r *memFAQRepo) ListActive(_ context.Context) ([]models.FAQEntry, error) {
	var active []models.FAQEntry
	for _, e := range r.entries {
		if e.IsActive {
			active = append(active, e)
		}
	}
	return active, nil
}

func (r *memFAQRepo) SetActive(_ context.Context, id string, active bool) error {
	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	entry.IsActive = active
	r.entries[id] = entry
	return nil
}

type fixture struct {
	index       *corpus.Index
	vectors     *corpus.VectorStore
	synthesizer *stubSynthesizer
	web         *stubSearchClient
	cfg         config.RetrievalConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	curated, err := corpus.NewMemCurated()
	require.NoError(t, err)
	t.Cleanup(func() { curated.Close() })

	vectors := corpus.NewMemVectorStore(stubEmbedder{}, logger)
	index := corpus.NewIndex(curated, vectors, newMemFAQRepo(), nil, logger)

	cfg := *config.DefaultRetrievalConfig()
	cfg.Tier1MinScore = 0.1
	cfg.Tier2MinSimilarity = 0.0
	cfg.WebSearchTimeout = 200 * time.Millisecond

	return &fixture{
		index:       index,
		vectors:     vectors,
		synthesizer: &stubSynthesizer{},
		web:         &stubSearchClient{},
		cfg:         cfg,
	}
}

func (f *fixture) cascade(t *testing.T) *Cascade {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCascade(f.index, f.synthesizer, f.web, f.cfg, logger)
}

func (f *fixture) addCuratedEntry(t *testing.T, question, answer string) {
	t.Helper()
	_, err := f.index.UpsertCurated(context.Background(), &models.FAQEntry{
		Question: question,
		Answer:   answer,
		Category: "general",
		IsActive: true,
		Priority: 5,
	})
	require.NoError(t, err)
}

func (f *fixture) addDocumentChunk(t *testing.T, docID, content string, perms models.PermissionSet) {
	t.Helper()
	err := f.vectors.AddDocumentChunks(context.Background(), &models.Document{
		ID:          docID,
		DisplayName: docID + ".pdf",
		Permissions: perms,
	}, []string{content})
	require.NoError(t, err)
}

func openPerms() models.PermissionSet {
	return models.PermissionSet{ViewAll: true, ManagerAccess: true, AgentAccess: true, TrainingData: true}
}

func TestCascade_CuratedMatchWinsOverDocuments(t *testing.T) {
	f := newFixture(t)
	f.addCuratedEntry(t, "What is the standard interchange rate?", "Interchange starts at 1.6 percent plus ten cents.")
	f.addDocumentChunk(t, "doc-1", "The standard interchange rate is discussed in section four.", openPerms())

	answer, err := f.cascade(t).Answer(context.Background(), "standard interchange rate", models.RoleAgent)

	require.NoError(t, err)
	assert.Equal(t, ProvenanceCurated, answer.Provenance)
	assert.Equal(t, "Interchange starts at 1.6 percent plus ten cents.", answer.Text)
	assert.False(t, f.web.called, "lower tiers must not run when Tier 1 answers")
}

func TestCascade_FallsToDocumentsWhenCuratedMisses(t *testing.T) {
	f := newFixture(t)
	f.addDocumentChunk(t, "doc-1", "The Clover Station Duo costs thirteen hundred dollars upfront.", openPerms())

	answer, err := f.cascade(t).Answer(context.Background(), "clover station duo price", models.RoleAgent)

	require.NoError(t, err)
	assert.Equal(t, ProvenanceDocuments, answer.Provenance)
	assert.True(t, strings.HasPrefix(answer.Text, "synthesized:"))
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "doc-1", answer.Sources[0].ID, "Tier-2 answers must cite the source document")
	assert.Equal(t, "doc-1.pdf", answer.Sources[0].Title)
	assert.False(t, f.web.called)
}

func TestCascade_TrainingExcludedDocumentsNotFoldedIntoContext(t *testing.T) {
	f := newFixture(t)
	perms := openPerms()
	perms.TrainingData = false
	f.addDocumentChunk(t, "doc-raw", "Raw processor statements with cardholder data.", perms)

	answer, err := f.cascade(t).Answer(context.Background(), "raw processor statements", models.RoleAgent)

	require.NoError(t, err)
	assert.Equal(t, ProvenanceNone, answer.Provenance,
		"chunks of documents excluded from AI context must not reach synthesis")
}

func TestCascade_RestrictedDocumentsInvisibleToAgentFallThrough(t *testing.T) {
	f := newFixture(t)
	f.addDocumentChunk(t, "doc-mgmt", "Escalation discount authority is limited to managers.",
		models.PermissionSet{AdminOnly: true})
	f.web.results = []external.SearchResult{
		{Title: "Public page", URL: "https://example.com", Snippet: "General payments info."},
	}

	answer, err := f.cascade(t).Answer(context.Background(), "escalation discount authority", models.RoleAgent)

	require.NoError(t, err)
	assert.Equal(t, ProvenanceWeb, answer.Provenance,
		"agent query must skip restricted chunks and reach Tier 3")
}

func TestCascade_FallsToWebWhenNothingInternal(t *testing.T) {
	f := newFixture(t)
	f.web.results = []external.SearchResult{
		{Title: "Visa surcharge rules", URL: "https://example.com/visa", Snippet: "State surcharge regulations.", Score: 0.9},
	}

	answer, err := f.cascade(t).Answer(context.Background(), "state surcharge regulations", models.RoleManager)

	require.NoError(t, err)
	assert.Equal(t, ProvenanceWeb, answer.Provenance)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "https://example.com/visa", answer.Sources[0].URL)
}

func TestCascade_WebFailureFallsClosed(t *testing.T) {
	f := newFixture(t)
	f.web.err = fmt.Errorf("upstream 502")

	answer, err := f.cascade(t).Answer(context.Background(), "anything at all", models.RoleAgent)

	require.NoError(t, err, "a broken Tier 3 must not fail the request")
	assert.Equal(t, ProvenanceNone, answer.Provenance)
	assert.Equal(t, fallbackAnswer, answer.Text)
	assert.True(t, answer.WebUnavailable)
}

func TestCascade_WebTimeoutFallsClosed(t *testing.T) {
	f := newFixture(t)
	f.cfg.WebSearchTimeout = 20 * time.Millisecond
	f.web.delay = 500 * time.Millisecond
	f.web.results = []external.SearchResult{
		{Title: "Too slow", URL: "https://example.com", Snippet: "never arrives"},
	}

	answer, err := f.cascade(t).Answer(context.Background(), "slow question", models.RoleAgent)

	require.NoError(t, err)
	assert.Equal(t, ProvenanceNone, answer.Provenance)
}

func TestCascade_NoWebClientSkipsTierThree(t *testing.T) {
	f := newFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cascade := NewCascade(f.index, f.synthesizer, nil, f.cfg, logger)

	answer, err := cascade.Answer(context.Background(), "unanswerable question", models.RoleAgent)

	require.NoError(t, err)
	assert.Equal(t, ProvenanceNone, answer.Provenance)
}

func TestCascade_SynthesizerFailureFallsThrough(t *testing.T) {
	f := newFixture(t)
	f.synthesizer.fail = true
	f.addDocumentChunk(t, "doc-1", "Gift card program setup is fifty dollars.", openPerms())
	f.web.err = fmt.Errorf("no web either")

	answer, err := f.cascade(t).Answer(context.Background(), "gift card setup fee", models.RoleAgent)

	require.NoError(t, err)
	assert.Equal(t, ProvenanceNone, answer.Provenance)
}

func TestCascade_RejectsEmptyQuestion(t *testing.T) {
	f := newFixture(t)

	_, err := f.cascade(t).Answer(context.Background(), "   ", models.RoleAgent)

	assert.Error(t, err)
}

func TestCascade_CancelledContextReturnsError(t *testing.T) {
	f := newFixture(t)
	f.addDocumentChunk(t, "doc-1", "Some content.", openPerms())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.cascade(t).Answer(ctx, "some question", models.RoleAgent)

	assert.ErrorIs(t, err, context.Canceled)
}
