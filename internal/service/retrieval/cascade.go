// Package retrieval answers questions by walking a fixed cascade of
// knowledge tiers: curated Q&A first, then vectorized documents, then
// external web search. A tier is only consulted when every tier above
// it missed, and every answer carries a provenance tag naming the tier
// that produced it.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"jacc/internal/config"
	"jacc/internal/corpus"
	"jacc/internal/domain/models"
	"jacc/internal/search/external"
)

// Provenance names the tier an answer came from
type Provenance string

const (
	ProvenanceCurated   Provenance = "faq"
	ProvenanceDocuments Provenance = "documents"
	ProvenanceWeb       Provenance = "web"
	ProvenanceNone      Provenance = "none"
)

// Source describes one piece of supporting material behind an answer.
// ID carries the document identifier for Tier-2 citations.
type Source struct {
	ID    string  `json:"id,omitempty"`
	Title string  `json:"title"`
	URL   string  `json:"url,omitempty"`
	Score float64 `json:"score,omitempty"`
}

// Answer is the cascade's result
type Answer struct {
	Text       string     `json:"answer"`
	Provenance Provenance `json:"provenance"`
	Sources    []Source   `json:"sources,omitempty"`
	// WebUnavailable marks a fallback that would have consulted web
	// search but couldn't, so callers can distinguish "nothing known"
	// from "external search was down"
	WebUnavailable bool `json:"web_unavailable,omitempty"`
}

// fallbackAnswer is returned when every tier misses. Tier failures
// never surface to the caller; they degrade to this.
const fallbackAnswer = "I don't have information on that yet. Please contact your manager or try rephrasing the question."

// Synthesizer composes a grounded answer from retrieved passages
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, passages []string) (string, error)
}

// Cascade resolves questions tier by tier
type Cascade struct {
	index       *corpus.Index
	synthesizer Synthesizer
	web         external.SearchClient
	cfg         config.RetrievalConfig
	logger      *slog.Logger
}

// NewCascade builds the retrieval cascade. web may be nil when no
// search provider is configured; Tier 3 is then skipped entirely.
func NewCascade(index *corpus.Index, synthesizer Synthesizer, web external.SearchClient, cfg config.RetrievalConfig, logger *slog.Logger) *Cascade {
	return &Cascade{
		index:       index,
		synthesizer: synthesizer,
		web:         web,
		cfg:         cfg,
		logger:      logger,
	}
}

// Answer walks the tiers in order for the given role's question. The
// first tier that produces a confident answer wins; a tier error is
// logged and treated as a miss, so a broken tier degrades the cascade
// instead of failing the request.
func (c *Cascade) Answer(ctx context.Context, question string, role models.Role) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	tiers := []struct {
		name string
		run  func(context.Context, string, models.Role) (*Answer, error)
	}{
		{"curated", c.answerFromCurated},
		{"documents", c.answerFromDocuments},
		{"web", c.answerFromWeb},
	}

	webFailed := false
	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		answer, err := tier.run(ctx, question, role)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if tier.name == "web" {
				webFailed = true
			}
			c.logger.Warn("retrieval tier failed, falling through",
				"tier", tier.name,
				"error", err,
			)
			continue
		}
		if answer != nil {
			return answer, nil
		}
	}

	return &Answer{
		Text:           fallbackAnswer,
		Provenance:     ProvenanceNone,
		WebUnavailable: webFailed,
	}, nil
}

// answerFromCurated is Tier 1: a curated match at or above the score
// threshold answers verbatim, bypassing synthesis entirely.
func (c *Cascade) answerFromCurated(ctx context.Context, question string, _ models.Role) (*Answer, error) {
	matches, err := c.index.QueryCurated(ctx, question, 3)
	if err != nil {
		return nil, fmt.Errorf("query curated entries: %w", err)
	}

	if len(matches) == 0 || matches[0].Score < c.cfg.Tier1MinScore {
		return nil, nil
	}

	top := matches[0]
	return &Answer{
		Text:       top.Answer,
		Provenance: ProvenanceCurated,
		Sources: []Source{{
			Title: top.Question,
			Score: top.Score,
		}},
	}, nil
}

// answerFromDocuments is Tier 2: role-visible chunks above the
// similarity floor are synthesized into a grounded answer.
func (c *Cascade) answerFromDocuments(ctx context.Context, question string, role models.Role) (*Answer, error) {
	matches, err := c.index.QueryDocuments(ctx, question, c.cfg.Tier2MaxChunks, role)
	if err != nil {
		return nil, fmt.Errorf("query document chunks: %w", err)
	}

	passages := make([]string, 0, len(matches))
	sources := make([]Source, 0, len(matches))
	seen := make(map[string]bool)
	for _, m := range matches {
		if m.Similarity < c.cfg.Tier2MinSimilarity {
			continue
		}
		passages = append(passages, m.Content)
		if !seen[m.DocumentID] {
			seen[m.DocumentID] = true
			sources = append(sources, Source{
				ID:    m.DocumentID,
				Title: m.DisplayName,
				Score: float64(m.Similarity),
			})
		}
	}

	if len(passages) == 0 {
		return nil, nil
	}

	text, err := c.synthesizer.Synthesize(ctx, question, passages)
	if err != nil {
		return nil, fmt.Errorf("synthesize document answer: %w", err)
	}

	return &Answer{
		Text:       text,
		Provenance: ProvenanceDocuments,
		Sources:    sources,
	}, nil
}

// answerFromWeb is Tier 3: an external search under its own deadline.
// Any failure here is a miss; the web never gets to break the product.
func (c *Cascade) answerFromWeb(ctx context.Context, question string, _ models.Role) (*Answer, error) {
	if c.web == nil {
		return nil, nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, c.cfg.WebSearchTimeout)
	defer cancel()

	resp, err := c.web.Search(searchCtx, question, external.SearchOptions{
		MaxResults: c.cfg.WebSearchMaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}

	passages := make([]string, 0, len(resp.Results))
	sources := make([]Source, 0, len(resp.Results))
	for _, r := range resp.Results {
		if strings.TrimSpace(r.Snippet) == "" {
			continue
		}
		passages = append(passages, fmt.Sprintf("%s\n%s", r.Title, r.Snippet))
		sources = append(sources, Source{
			Title: r.Title,
			URL:   r.URL,
			Score: r.Score,
		})
	}

	if len(passages) == 0 {
		return nil, nil
	}

	text, err := c.synthesizer.Synthesize(ctx, question, passages)
	if err != nil {
		return nil, fmt.Errorf("synthesize web answer: %w", err)
	}

	return &Answer{
		Text:       text,
		Provenance: ProvenanceWeb,
		Sources:    sources,
	}, nil
}
