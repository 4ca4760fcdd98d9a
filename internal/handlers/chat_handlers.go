package handlers

import (
	"context"
	"net/http"
	"strconv"

	"mindfulchat-backend/internal/auth"
	"mindfulchat-backend/internal/models"
	"mindfulchat-backend/pkg/httputil"

	log "github.com/sirupsen/logrus"
)

// TurnProcessor is the conversation engine used by chat endpoints.
type TurnProcessor interface {
	Process(ctx context.Context, actor models.Actor, message, backendChoice string) (string, error)
	History(ctx context.Context, actor models.Actor, limit int) ([]models.ConversationTurn, error)
}

// ChatHandlers handles chat requests from registered users.
type ChatHandlers struct {
	processor TurnProcessor
}

func NewChatHandlers(processor TurnProcessor) *ChatHandlers {
	return &ChatHandlers{processor: processor}
}

// HandleChat handles POST /api/chat.
func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.ChatRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	actor := models.Actor{Kind: models.ActorUser, ID: userID}
	reply, err := h.processor.Process(r.Context(), actor, req.Message, req.Model)
	if err != nil {
		log.Printf("Chat handler failed for %s: %v", actor, err)
		respondTurnError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

// HandleHistory handles GET /api/chat/history?limit=N.
func (h *ChatHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	actor := models.Actor{Kind: models.ActorUser, ID: userID}
	turns, err := h.processor.History(r.Context(), actor, limit)
	if err != nil {
		log.Printf("History handler failed for %s: %v", actor, err)
		httputil.RespondError(w, http.StatusInternalServerError, msgGeneric)
		return
	}

	resp := models.ChatHistoryResponse{Turns: make([]models.TurnResponse, 0, len(turns))}
	for _, t := range turns {
		resp.Turns = append(resp.Turns, models.TurnResponse{
			ID:        t.ID,
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.CreatedAt,
		})
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}
