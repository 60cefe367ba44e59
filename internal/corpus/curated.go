package corpus

import (
	"fmt"
	"sort"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"jacc/internal/domain/models"
)

// CuratedIndex wraps a Bleve index over active curated Q&A entries.
// This is the lexical side of Tier 1: entries are indexed on upsert
// and removed on deactivation, so a query never sees inactive rows.
type CuratedIndex struct {
	index bleve.Index
}

// curatedDoc is the indexed shape of a curated entry
type curatedDoc struct {
	Question string
	Answer   string
	Category string
	Tags     []string
	Priority float64
	Updated  string // RFC3339, carried for tie-breaking
}

// CuratedMatch is a scored curated entry returned by Query
type CuratedMatch struct {
	ID       string
	Question string
	Answer   string
	Category string
	Priority int
	Score    float64
	Updated  time.Time
}

// OpenCurated opens or creates a persistent curated index
func OpenCurated(path string) (*CuratedIndex, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildCuratedMapping())
		if err != nil {
			return nil, fmt.Errorf("create curated index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open curated index: %w", err)
	}

	return &CuratedIndex{index: idx}, nil
}

// NewMemCurated creates an in-memory curated index (tests, dev)
func NewMemCurated() (*CuratedIndex, error) {
	idx, err := bleve.NewMemOnly(buildCuratedMapping())
	if err != nil {
		return nil, fmt.Errorf("create curated index: %w", err)
	}
	return &CuratedIndex{index: idx}, nil
}

// buildCuratedMapping boosts question matches over answer/category text
func buildCuratedMapping() mapping.IndexMapping {
	questionFieldMapping := bleve.NewTextFieldMapping()
	questionFieldMapping.Analyzer = "en" // English analyzer for stemming

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Question", questionFieldMapping)
	docMapping.AddFieldMappingsAt("Answer", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Category", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Tags", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Priority", bleve.NewNumericFieldMapping())
	docMapping.AddFieldMappingsAt("Updated", bleve.NewKeywordFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// Close closes the index
func (c *CuratedIndex) Close() error {
	return c.index.Close()
}

// IndexEntry adds or updates a curated entry in the index
func (c *CuratedIndex) IndexEntry(entry *models.FAQEntry) error {
	return c.index.Index(entry.ID, &curatedDoc{
		Question: entry.Question,
		Answer:   entry.Answer,
		Category: entry.Category,
		Tags:     entry.Tags,
		Priority: float64(entry.Priority),
		Updated:  entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// Remove deletes an entry from the index (deactivation path)
func (c *CuratedIndex) Remove(id string) error {
	return c.index.Delete(id)
}

// Rebuild replaces the index contents from the active entry set
func (c *CuratedIndex) Rebuild(entries []models.FAQEntry) error {
	batch := c.index.NewBatch()
	for i := range entries {
		entry := &entries[i]
		if err := batch.Index(entry.ID, &curatedDoc{
			Question: entry.Question,
			Answer:   entry.Answer,
			Category: entry.Category,
			Tags:     entry.Tags,
			Priority: float64(entry.Priority),
			Updated:  entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
		}); err != nil {
			return fmt.Errorf("batch index %s: %w", entry.ID, err)
		}
	}

	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	return nil
}

// Query matches entries by lexical relevance. Equal scores are broken
// by descending priority, then most recent update.
func (c *CuratedIndex) Query(text string, limit int) ([]CuratedMatch, error) {
	questionQuery := bleve.NewMatchQuery(text)
	questionQuery.SetField("Question")
	questionQuery.SetBoost(3.0)

	answerQuery := bleve.NewMatchQuery(text)
	answerQuery.SetField("Answer")

	categoryQuery := bleve.NewMatchQuery(text)
	categoryQuery.SetField("Category")

	query := bleve.NewDisjunctionQuery(questionQuery, answerQuery, categoryQuery)

	search := bleve.NewSearchRequestOptions(query, limit, 0, false)
	search.Fields = []string{"Question", "Answer", "Category", "Priority", "Updated"}

	results, err := c.index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("curated search: %w", err)
	}

	matches := make([]CuratedMatch, 0, len(results.Hits))
	for _, hit := range results.Hits {
		match := CuratedMatch{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if question, ok := hit.Fields["Question"].(string); ok {
			match.Question = question
		}
		if answer, ok := hit.Fields["Answer"].(string); ok {
			match.Answer = answer
		}
		if category, ok := hit.Fields["Category"].(string); ok {
			match.Category = category
		}
		if priority, ok := hit.Fields["Priority"].(float64); ok {
			match.Priority = int(priority)
		}
		if updated, ok := hit.Fields["Updated"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
				match.Updated = t
			}
		}

		matches = append(matches, match)
	}

	// Bleve orders by score; settle equal-score ties deterministically
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Priority != matches[j].Priority {
			return matches[i].Priority > matches[j].Priority
		}
		return matches[i].Updated.After(matches[j].Updated)
	})

	return matches, nil
}

// Count returns the number of indexed entries
func (c *CuratedIndex) Count() (uint64, error) {
	return c.index.DocCount()
}
