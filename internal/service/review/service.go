// Package review implements the admin review loop over past chats:
// recording per-chat review status, attaching message corrections, and
// promoting corrections into the curated Q&A tier.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jacc/internal/corpus"
	"jacc/internal/domain"
	"jacc/internal/domain/models"
	"jacc/internal/domain/repositories"
)

// promotedCategory is the category promoted corrections land under.
// Keeping them in one category makes the idempotence key
// (question, category) stable across repeated promotions.
const promotedCategory = "reviewed-corrections"

// Service drives the review and correction loop
type Service struct {
	reviews repositories.ReviewRepository
	chats   repositories.ChatRepository
	index   *corpus.Index
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates the review service
func NewService(reviews repositories.ReviewRepository, chats repositories.ChatRepository, index *corpus.Index, logger *slog.Logger) *Service {
	return &Service{
		reviews: reviews,
		chats:   chats,
		index:   index,
		logger:  logger,
		now:     time.Now,
	}
}

// RecordReview upserts the review record for a chat. Correction and
// message counts are snapshotted at review time so the record reflects
// what the reviewer actually saw, even if the chat changes later.
func (s *Service) RecordReview(ctx context.Context, chatID string, status models.ReviewStatus, notes, reviewedBy string) (*models.ChatReview, error) {
	if !status.Valid() {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unknown review status %q", status),
		}
	}

	totalMessages, err := s.chats.CountMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("count chat messages: %w", err)
	}
	if totalMessages == 0 {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("chat %s has no messages", chatID),
		}
	}

	corrections, err := s.reviews.CountCorrections(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("count corrections: %w", err)
	}

	review := &models.ChatReview{
		ChatID:          chatID,
		Status:          status,
		Notes:           notes,
		ReviewedBy:      reviewedBy,
		CorrectionsMade: corrections,
		TotalMessages:   totalMessages,
		LastReviewedAt:  s.now(),
	}

	if err := s.reviews.UpsertReview(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info("chat reviewed",
		"chat_id", chatID,
		"status", status,
		"reviewed_by", reviewedBy,
	)

	return review, nil
}

// GetReview returns a chat's review record
func (s *Service) GetReview(ctx context.Context, chatID string) (*models.ChatReview, error) {
	return s.reviews.GetReview(ctx, chatID)
}

// AddCorrection attaches a corrected answer to an assistant message
func (s *Service) AddCorrection(ctx context.Context, chatID, messageID, correctedContent, createdBy string) (*models.MessageCorrection, error) {
	correctedContent = strings.TrimSpace(correctedContent)
	if correctedContent == "" {
		return nil, &domain.ValidationError{Message: "corrected content cannot be empty"}
	}

	message, err := s.chats.GetMessage(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if message.Role != "assistant" {
		return nil, &domain.ValidationError{
			Message: "only assistant messages can be corrected",
		}
	}

	correction := &models.MessageCorrection{
		ChatID:           chatID,
		MessageID:        messageID,
		CorrectedContent: correctedContent,
		CreatedBy:        createdBy,
	}

	if err := s.reviews.AddCorrection(ctx, correction); err != nil {
		return nil, err
	}

	s.logger.Info("message correction recorded",
		"chat_id", chatID,
		"message_id", messageID,
		"created_by", createdBy,
	)

	return correction, nil
}

// PromotionResult reports a promotion outcome
type PromotionResult struct {
	EntryID  string `json:"entry_id"`
	Question string `json:"question"`
	Created  bool   `json:"created"` // false when an existing entry was updated
}

// PromoteToCurated lifts a correction into the curated Q&A tier. The
// question is the user message preceding the corrected answer;
// promotion is idempotent by question text, so promoting again (or
// promoting a second correction of the same question) updates the
// existing entry instead of duplicating it.
func (s *Service) PromoteToCurated(ctx context.Context, correctionID, promotedBy string) (*PromotionResult, error) {
	correction, err := s.reviews.GetCorrection(ctx, correctionID)
	if err != nil {
		return nil, err
	}

	question, err := s.chats.FindPrecedingUserMessage(ctx, correction.ChatID, correction.MessageID)
	if err != nil {
		return nil, fmt.Errorf("find question for correction %s: %w", correctionID, err)
	}

	entry := &models.FAQEntry{
		Question:  strings.TrimSpace(question.Content),
		Answer:    correction.CorrectedContent,
		Category:  promotedCategory,
		Tags:      []string{"promoted"},
		IsActive:  true,
		Priority:  7,
		CreatedBy: promotedBy,
	}

	created, err := s.index.UpsertCurated(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("promote correction %s: %w", correctionID, err)
	}

	s.logger.Info("correction promoted to curated tier",
		"correction_id", correctionID,
		"entry_id", entry.ID,
		"created", created,
	)

	return &PromotionResult{
		EntryID:  entry.ID,
		Question: entry.Question,
		Created:  created,
	}, nil
}

// Stats aggregates review progress for the admin dashboard
func (s *Service) Stats(ctx context.Context) (*models.ReviewStats, error) {
	return s.reviews.Stats(ctx)
}
