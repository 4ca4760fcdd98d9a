package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mindfulchat-backend/internal/models"
	"mindfulchat-backend/internal/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type GuestService struct {
	guests   store.GuestStore
	feedback store.FeedbackStore
}

func NewGuestService(guests store.GuestStore, feedback store.FeedbackStore) *GuestService {
	return &GuestService{guests: guests, feedback: feedback}
}

// Start opens a guest session.
func (s *GuestService) Start(ctx context.Context, name, entrySentence string) (*models.Guest, error) {
	name = strings.TrimSpace(name)
	entrySentence = strings.TrimSpace(entrySentence)
	if name == "" {
		return nil, invalid("guest_name", "Guest name is required")
	}
	if entrySentence == "" {
		return nil, invalid("entry_sentence", "Entry sentence is required")
	}
	guest, err := s.guests.CreateGuest(ctx, name, entrySentence)
	if err != nil {
		log.Printf("Error creating guest %q: %v", name, err)
		return nil, fmt.Errorf("%w: create guest: %w", ErrStorage, err)
	}
	log.Printf("Guest session started: %s (ID: %s)", guest.Name, guest.ID)
	return guest, nil
}

// Get resolves a guest id sent by a client.
func (s *GuestService) Get(ctx context.Context, rawID string) (*models.Guest, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, invalid("guestId", "Guest ID is required")
	}
	guest, err := s.guests.GetGuestByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, fmt.Errorf("%w: get guest: %w", ErrStorage, err)
	}
	return guest, nil
}

// LeaveFeedback records a 1 to 5 rating with an optional message.
func (s *GuestService) LeaveFeedback(ctx context.Context, rawID string, rating int, message string) error {
	guest, err := s.Get(ctx, rawID)
	if err != nil {
		return err
	}
	if rating < 1 || rating > 5 {
		return invalid("rating", "Rating must be between 1 and 5")
	}
	if err := s.feedback.CreateGuestFeedback(ctx, guest.ID, rating, strings.TrimSpace(message)); err != nil {
		return fmt.Errorf("%w: create guest feedback: %w", ErrStorage, err)
	}
	return nil
}

// HasFeedback reports whether the guest already left feedback.
func (s *GuestService) HasFeedback(ctx context.Context, rawID string) (bool, error) {
	guest, err := s.Get(ctx, rawID)
	if err != nil {
		return false, err
	}
	has, err := s.feedback.HasGuestFeedback(ctx, guest.ID)
	if err != nil {
		return false, fmt.Errorf("%w: check guest feedback: %w", ErrStorage, err)
	}
	return has, nil
}
