package repositories

import (
	"context"

	"jacc/internal/domain/models"
)

// ReviewRepository defines data access for chat review records and
// message corrections
type ReviewRepository interface {
	// UpsertReview writes the single review record for a chat,
	// overwriting status/notes on re-review
	UpsertReview(ctx context.Context, review *models.ChatReview) error

	// GetReview retrieves a chat's review record
	GetReview(ctx context.Context, chatID string) (*models.ChatReview, error)

	// AddCorrection appends a message correction
	AddCorrection(ctx context.Context, correction *models.MessageCorrection) error

	// GetCorrection retrieves a correction by ID
	GetCorrection(ctx context.Context, id string) (*models.MessageCorrection, error)

	// CountCorrections counts corrections for a chat
	CountCorrections(ctx context.Context, chatID string) (int, error)

	// Stats aggregates review counts by status plus total corrections
	Stats(ctx context.Context) (*models.ReviewStats, error)
}

// ChatRepository is the read-path into chat transcripts consumed by
// the review loop. Writing transcripts is the chat component's job.
type ChatRepository interface {
	// GetMessage retrieves a single message, scoped to its chat
	GetMessage(ctx context.Context, chatID, messageID string) (*models.ChatMessage, error)

	// CountMessages counts messages in a chat
	CountMessages(ctx context.Context, chatID string) (int, error)

	// FindPrecedingUserMessage returns the closest user message before
	// the given message in the same chat. Promotion uses it to recover
	// the question a corrected answer responds to.
	FindPrecedingUserMessage(ctx context.Context, chatID, messageID string) (*models.ChatMessage, error)
}
