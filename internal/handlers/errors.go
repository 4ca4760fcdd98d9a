package handlers

import (
	"errors"
	"net/http"

	"mindfulchat-backend/internal/services"
	"mindfulchat-backend/pkg/httputil"
)

const (
	msgModerationRejected = "Invalid input. Please stick to personal and emotional topics."
	msgMessageTooLong     = "Message too long."
	msgGeneric            = "Something went wrong"
)

// respondTurnError maps conversation errors onto the client-facing taxonomy.
// Details stay in the server log.
func respondTurnError(w http.ResponseWriter, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		httputil.RespondError(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, services.ErrModerationRejected):
		httputil.RespondError(w, http.StatusBadRequest, msgModerationRejected)
	case errors.Is(err, services.ErrMessageTooLong):
		httputil.RespondError(w, http.StatusBadRequest, msgMessageTooLong)
	case errors.Is(err, services.ErrBackendUnavailable):
		httputil.RespondError(w, http.StatusBadGateway, msgGeneric)
	default:
		httputil.RespondError(w, http.StatusInternalServerError, msgGeneric)
	}
}
