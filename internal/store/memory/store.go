// Package memory is an in-process store for local development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	db_models "mindfulchat-backend/internal/models"
	"mindfulchat-backend/internal/store"

	"github.com/google/uuid"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu            sync.RWMutex
	now           func() time.Time
	users         map[uuid.UUID]*db_models.User
	usersByEmail  map[string]uuid.UUID
	guests        map[uuid.UUID]*db_models.Guest
	turns         map[db_models.Actor][]db_models.ConversationTurn
	feedback      map[uuid.UUID]db_models.Feedback
	guestFeedback map[uuid.UUID][]db_models.GuestFeedback
}

func New() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[uuid.UUID]*db_models.User),
		usersByEmail:  make(map[string]uuid.UUID),
		guests:        make(map[uuid.UUID]*db_models.Guest),
		turns:         make(map[db_models.Actor][]db_models.ConversationTurn),
		feedback:      make(map[uuid.UUID]db_models.Feedback),
		guestFeedback: make(map[uuid.UUID][]db_models.GuestFeedback),
	}
}

func (s *Store) CreateUser(_ context.Context, arg store.CreateUserParams) (*db_models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(arg.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return nil, store.ErrConflict
	}
	id := arg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	otp := arg.OTP
	expires := arg.OTPExpiresAt
	now := s.now()
	u := &db_models.User{
		ID:             id,
		Name:           arg.Name,
		Email:          email,
		Phone:          arg.Phone,
		HashedPassword: arg.HashedPassword,
		OTP:            &otp,
		OTPExpiresAt:   &expires,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.users[id] = u
	s.usersByEmail[email] = id
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*db_models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*db_models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) MarkUserVerified(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.IsVerified = true
	u.OTP = nil
	u.OTPExpiresAt = nil
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) ReissueUnverifiedUser(_ context.Context, arg store.CreateUserParams) (*db_models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usersByEmail[strings.ToLower(arg.Email)]
	if !ok || s.users[id].IsVerified {
		return nil, store.ErrNotFound
	}
	u := s.users[id]
	otp := arg.OTP
	expires := arg.OTPExpiresAt
	u.Name = arg.Name
	u.Phone = arg.Phone
	u.HashedPassword = arg.HashedPassword
	u.OTP = &otp
	u.OTPExpiresAt = &expires
	u.UpdatedAt = s.now()
	cp := *u
	return &cp, nil
}

func (s *Store) CreateGuest(_ context.Context, name, entrySentence string) (*db_models.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &db_models.Guest{
		ID:            uuid.New(),
		Name:          name,
		EntrySentence: entrySentence,
		CreatedAt:     s.now(),
	}
	s.guests[g.ID] = g
	cp := *g
	return &cp, nil
}

func (s *Store) GetGuestByID(_ context.Context, id uuid.UUID) (*db_models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *Store) FetchRecentTurns(_ context.Context, actor db_models.Actor, limit int) ([]db_models.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[actor]
	if len(arr) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	out := make([]db_models.ConversationTurn, 0, limit)
	for i := len(arr) - 1; i >= len(arr)-limit; i-- {
		out = append(out, arr[i])
	}
	return out, nil
}

func (s *Store) AppendTurns(_ context.Context, actor db_models.Actor, turns []store.NewTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, t := range turns {
		s.turns[actor] = append(s.turns[actor], db_models.ConversationTurn{
			ID:        uuid.New(),
			ActorKind: actor.Kind,
			ActorID:   actor.ID,
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: now,
		})
	}
	return nil
}

func (s *Store) CreateFeedback(_ context.Context, userID uuid.UUID, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.feedback[userID]; exists {
		return store.ErrConflict
	}
	s.feedback[userID] = db_models.Feedback{
		ID:        uuid.New(),
		UserID:    userID,
		Feedback:  feedback,
		CreatedAt: s.now(),
	}
	return nil
}

func (s *Store) HasFeedback(_ context.Context, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.feedback[userID]
	return exists, nil
}

func (s *Store) CreateGuestFeedback(_ context.Context, guestID uuid.UUID, rating int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guestFeedback[guestID] = append(s.guestFeedback[guestID], db_models.GuestFeedback{
		ID:        uuid.New(),
		GuestID:   guestID,
		Rating:    rating,
		Message:   message,
		CreatedAt: s.now(),
	})
	return nil
}

func (s *Store) HasGuestFeedback(_ context.Context, guestID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.guestFeedback[guestID]) > 0, nil
}

func (s *Store) Close() {}
