package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lumina-labs/lumina-backend/internal/domain"
	"github.com/lumina-labs/lumina-backend/internal/provider"
	"github.com/lumina-labs/lumina-backend/internal/service/content"
	"github.com/lumina-labs/lumina-backend/pkg/ctxutil"
)

// contentService defines the minimal interface needed by GenerateHandler.
type contentService interface {
	Handle(ctx context.Context, req content.Request) (any, error)
}

// GenerateHandler serves the single generation endpoint.
type GenerateHandler struct {
	svc contentService
	log *slog.Logger
}

// NewGenerateHandler creates a GenerateHandler.
func NewGenerateHandler(svc contentService, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{svc: svc, log: logger.With("handler", "generate")}
}

type generateRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Generate handles POST /api/generate. The body carries an action name and an
// action-specific payload; the response body is the action result as is.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	action, err := domain.ParseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	userID, _ := ctxutil.UserIDFromCtx(r.Context())

	result, err := h.svc.Handle(r.Context(), content.Request{
		Action:  action,
		Payload: req.Payload,
		UserID:  userID,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *GenerateHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "daily quota exceeded")
	case errors.Is(err, domain.ErrSafetyViolation):
		writeError(w, http.StatusUnprocessableEntity, "content blocked by safety filters")
	case errors.Is(err, provider.ErrRateLimited):
		writeError(w, http.StatusServiceUnavailable, "generation backend rate limited, try again shortly")
	case errors.Is(err, provider.ErrOverloaded):
		writeError(w, http.StatusServiceUnavailable, "generation backend overloaded, try again shortly")
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
