package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"mindfulchat-backend/internal/store"

	"github.com/google/uuid"
)

const minFeedbackLength = 3

type FeedbackService struct {
	store store.FeedbackStore
}

func NewFeedbackService(s store.FeedbackStore) *FeedbackService {
	return &FeedbackService{store: s}
}

// Submit stores the single feedback entry a user may leave.
func (s *FeedbackService) Submit(ctx context.Context, userID uuid.UUID, feedback string) error {
	feedback = strings.TrimSpace(feedback)
	if utf8.RuneCountInString(feedback) < minFeedbackLength {
		return ErrFeedbackTooShort
	}
	if err := s.store.CreateFeedback(ctx, userID, feedback); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrFeedbackExists
		}
		return fmt.Errorf("%w: create feedback: %w", ErrStorage, err)
	}
	return nil
}

func (s *FeedbackService) HasFeedback(ctx context.Context, userID uuid.UUID) (bool, error) {
	has, err := s.store.HasFeedback(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("%w: check feedback: %w", ErrStorage, err)
	}
	return has, nil
}
