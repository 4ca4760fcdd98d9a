package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mindfulchat-backend/internal/llm"
	"mindfulchat-backend/internal/models"
	"mindfulchat-backend/internal/services"
	"mindfulchat-backend/pkg/httputil"

	log "github.com/sirupsen/logrus"
)

// GuestService defines the guest session operations used by the handlers.
type GuestService interface {
	Start(ctx context.Context, name, entrySentence string) (*models.Guest, error)
	Get(ctx context.Context, rawID string) (*models.Guest, error)
	LeaveFeedback(ctx context.Context, rawID string, rating int, message string) error
	HasFeedback(ctx context.Context, rawID string) (bool, error)
}

type GuestHandlers struct {
	guests    GuestService
	processor TurnProcessor
}

func NewGuestHandlers(guests GuestService, processor TurnProcessor) *GuestHandlers {
	return &GuestHandlers{guests: guests, processor: processor}
}

// HandleStart handles POST /api/guest/start.
func (h *GuestHandlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req models.StartGuestRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	guest, err := h.guests.Start(r.Context(), req.DisplayName(), req.Entry())
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			httputil.RespondError(w, http.StatusBadRequest, "Guest name and entry sentence are required")
			return
		}
		log.Printf("Guest start handler failed: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, msgGeneric)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, models.StartGuestResponse{GuestID: guest.ID, Name: guest.Name})
}

// HandleChat handles POST /api/guest/chat.
func (h *GuestHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.GuestChatRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	guest, ok := h.resolveGuest(w, r, req.ID())
	if !ok {
		return
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = llm.BackendHosted
	}

	actor := models.Actor{Kind: models.ActorGuest, ID: guest.ID}
	reply, err := h.processor.Process(r.Context(), actor, req.Message, model)
	if err != nil {
		log.Printf("Guest chat handler failed for %s: %v", actor, err)
		respondTurnError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

// HandleFeedback handles POST /api/guest/feedback.
func (h *GuestHandlers) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var req models.GuestFeedbackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.guests.LeaveFeedback(r.Context(), req.ID(), req.Rating, req.Message)
	if err != nil {
		var vErr *services.ValidationError
		switch {
		case errors.As(err, &vErr):
			httputil.RespondError(w, http.StatusBadRequest, vErr.Message)
		case errors.Is(err, services.ErrGuestNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Guest not found")
		default:
			log.Printf("Guest feedback handler failed: %v", err)
			httputil.RespondError(w, http.StatusInternalServerError, msgGeneric)
		}
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, models.SuccessResponse{Success: true})
}

// HandleFeedbackStatus handles GET /api/guest/feedback/status?guestId=.
func (h *GuestHandlers) HandleFeedbackStatus(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("guestId")
	if rawID == "" {
		rawID = r.URL.Query().Get("guest_id")
	}
	if _, ok := h.resolveGuest(w, r, rawID); !ok {
		return
	}
	has, err := h.guests.HasFeedback(r.Context(), rawID)
	if err != nil {
		log.Printf("Guest feedback status handler failed: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, msgGeneric)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.FeedbackStatusResponse{HasFeedback: has})
}

// resolveGuest writes the error response itself when the id is unusable.
func (h *GuestHandlers) resolveGuest(w http.ResponseWriter, r *http.Request, rawID string) (*models.Guest, bool) {
	guest, err := h.guests.Get(r.Context(), rawID)
	if err == nil {
		return guest, true
	}
	switch {
	case errors.Is(err, services.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, "Guest ID is required")
	case errors.Is(err, services.ErrGuestNotFound):
		httputil.RespondError(w, http.StatusNotFound, "Guest not found")
	default:
		log.Printf("Guest lookup failed for %q: %v", rawID, err)
		httputil.RespondError(w, http.StatusInternalServerError, msgGeneric)
	}
	return nil, false
}
