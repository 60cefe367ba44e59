package corpus

import (
	"strings"
)

// DefaultChunkSize bounds a chunk's character length so each embedded
// passage stays within the embedding model's useful context.
const DefaultChunkSize = 2000

// ChunkText splits extracted document text into passages for
// embedding. Paragraph boundaries are preferred; paragraphs that fit
// together are packed into one chunk, and a single oversized paragraph
// is split on the nearest space before the limit.
func ChunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	paragraphs := splitParagraphs(text)

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		if len(para) > maxChars {
			flush()
			chunks = append(chunks, splitLongParagraph(para, maxChars)...)
			continue
		}

		// +2 accounts for the paragraph separator we re-insert
		if current.Len() > 0 && current.Len()+2+len(para) > maxChars {
			flush()
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitLongParagraph cuts at the last space before the limit, falling
// back to a hard cut for unbroken runs
func splitLongParagraph(para string, maxChars int) []string {
	var parts []string
	for len(para) > maxChars {
		cut := strings.LastIndexByte(para[:maxChars], ' ')
		if cut <= 0 {
			cut = maxChars
		}
		parts = append(parts, strings.TrimSpace(para[:cut]))
		para = strings.TrimSpace(para[cut:])
	}
	if para != "" {
		parts = append(parts, para)
	}
	return parts
}
