package corpus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jacc/internal/domain/models"
)

func curatedEntry(id, question, answer string) *models.FAQEntry {
	return &models.FAQEntry{
		ID:        id,
		Question:  question,
		Answer:    answer,
		Category:  "billing",
		IsActive:  true,
		Priority:  5,
		UpdatedAt: time.Now().UTC(),
	}
}

func TestCuratedIndex_QueryPrefersQuestionMatches(t *testing.T) {
	idx, err := NewMemCurated()
	require.NoError(t, err)
	defer idx.Close()

	onQuestion := curatedEntry("faq-1", "How do I request an invoice copy?", "Email the billing desk.")
	onAnswer := curatedEntry("faq-2", "What are office hours?", "For an invoice copy, call billing.")

	require.NoError(t, idx.IndexEntry(onQuestion))
	require.NoError(t, idx.IndexEntry(onAnswer))

	matches, err := idx.Query("invoice copy", 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	assert.Equal(t, "faq-1", matches[0].ID, "question-field match should outrank answer-field match")
}

func TestCuratedIndex_RemoveHidesEntry(t *testing.T) {
	idx, err := NewMemCurated()
	require.NoError(t, err)
	defer idx.Close()

	entry := curatedEntry("faq-1", "How do I reset my password?", "Use the account portal.")
	require.NoError(t, idx.IndexEntry(entry))
	require.NoError(t, idx.Remove("faq-1"))

	matches, err := idx.Query("reset password", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCuratedIndex_ReindexUpdatesInPlace(t *testing.T) {
	idx, err := NewMemCurated()
	require.NoError(t, err)
	defer idx.Close()

	entry := curatedEntry("faq-1", "What is the mileage rate?", "Two dollars per mile.")
	require.NoError(t, idx.IndexEntry(entry))

	entry.Answer = "Three dollars per mile."
	require.NoError(t, idx.IndexEntry(entry))

	matches, err := idx.Query("mileage rate", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Three dollars per mile.", matches[0].Answer)
}

func TestCuratedIndex_EqualScoreTieBreaksOnPriority(t *testing.T) {
	idx, err := NewMemCurated()
	require.NoError(t, err)
	defer idx.Close()

	low := curatedEntry("faq-low", "How long is a standard tow wait?", "About thirty minutes.")
	low.Priority = 1
	high := curatedEntry("faq-high", "How long is a standard tow wait?", "About thirty minutes.")
	high.Priority = 9

	require.NoError(t, idx.IndexEntry(low))
	require.NoError(t, idx.IndexEntry(high))

	matches, err := idx.Query("standard tow wait", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "faq-high", matches[0].ID)
}

func TestCuratedIndex_RebuildReplacesContents(t *testing.T) {
	idx, err := NewMemCurated()
	require.NoError(t, err)
	defer idx.Close()

	entries := []models.FAQEntry{
		*curatedEntry("faq-1", "How do I dispute a charge?", "Submit a dispute form."),
		*curatedEntry("faq-2", "Where do refunds go?", "Back to the original card."),
	}
	require.NoError(t, idx.Rebuild(entries))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	matches, err := idx.Query("dispute a charge", 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "faq-1", matches[0].ID)
}
