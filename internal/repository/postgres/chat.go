package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"jacc/internal/domain"
	"jacc/internal/domain/models"
	"jacc/internal/domain/repositories"
)

// PostgresChatRepository implements the read-path ChatRepository used
// by the review loop. Transcript writes belong to the chat component.
type PostgresChatRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChatRepository creates a new chat transcript reader
func NewChatRepository(config *RepositoryConfig) repositories.ChatRepository {
	return &PostgresChatRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetMessage retrieves a single message, scoped to its chat
func (r *PostgresChatRepository) GetMessage(ctx context.Context, chatID, messageID string) (*models.ChatMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, chat_id, role, content, created_at
		FROM %s WHERE id = $1 AND chat_id = $2
	`, r.tables.ChatMessages)

	var msg models.ChatMessage
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, messageID, chatID).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.Role,
		&msg.Content,
		&msg.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("message %s in chat %s: %w", messageID, chatID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chat message: %w", err)
	}

	return &msg, nil
}

// CountMessages counts messages in a chat
func (r *PostgresChatRepository) CountMessages(ctx context.Context, chatID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE chat_id = $1`, r.tables.ChatMessages)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, chatID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chat messages: %w", err)
	}

	return count, nil
}

// FindPrecedingUserMessage returns the closest user message before the
// given message in the same chat
func (r *PostgresChatRepository) FindPrecedingUserMessage(ctx context.Context, chatID, messageID string) (*models.ChatMessage, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.chat_id, m.role, m.content, m.created_at
		FROM %s m
		WHERE m.chat_id = $1
			AND m.role = 'user'
			AND m.created_at <= (SELECT created_at FROM %s WHERE id = $2 AND chat_id = $1)
			AND m.id <> $2
		ORDER BY m.created_at DESC
		LIMIT 1
	`, r.tables.ChatMessages, r.tables.ChatMessages)

	var msg models.ChatMessage
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, chatID, messageID).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.Role,
		&msg.Content,
		&msg.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("no user message precedes %s in chat %s: %w", messageID, chatID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find preceding user message: %w", err)
	}

	return &msg, nil
}
