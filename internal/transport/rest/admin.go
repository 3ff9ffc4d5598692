package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	cachestore "github.com/lumina-labs/lumina-backend/internal/adapter/postgres/cache"
	"github.com/lumina-labs/lumina-backend/internal/auth"
	"github.com/lumina-labs/lumina-backend/internal/domain"
	"github.com/lumina-labs/lumina-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type cacheAdminStore interface {
	Find(ctx context.Context, filter cachestore.Filter) ([]domain.CacheEntry, error)
	Delete(ctx context.Context, hash string) error
}

type quotaAdminStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserQuota, error)
}

// AdminHandler serves cache and quota inspection endpoints. All handlers
// require an admin-role token.
type AdminHandler struct {
	cache cacheAdminStore
	quota quotaAdminStore
	log   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(cache cacheAdminStore, quota quotaAdminStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		cache: cache,
		quota: quota,
		log:   logger.With("handler", "admin"),
	}
}

// CacheList lists cached entries, newest first.
// GET /admin/cache?kind=generateStory&limit=50&offset=0
func (h *AdminHandler) CacheList(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var filter cachestore.Filter
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filter.Kind = &kind
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	entries, err := h.cache.Find(r.Context(), filter)
	if err != nil {
		h.log.ErrorContext(r.Context(), "list cache", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// CacheDelete evicts one cached entry by hash.
// DELETE /admin/cache/{hash}
func (h *AdminHandler) CacheDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	hash := r.PathValue("hash")
	if hash == "" {
		writeError(w, http.StatusBadRequest, "missing hash")
		return
	}

	if err := h.cache.Delete(r.Context(), hash); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		h.log.ErrorContext(r.Context(), "delete cache entry", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type quotaRowResponse struct {
	UserID     string `json:"userId"`
	DailyUsage int    `json:"dailyUsage"`
	LastReset  string `json:"lastReset"`
}

// QuotaGet returns the raw quota row for one user.
// GET /admin/quota/{user_id}
func (h *AdminHandler) QuotaGet(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	userID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	row, err := h.quota.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		h.log.ErrorContext(r.Context(), "get quota row", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, quotaRowResponse{
		UserID:     row.UserID.String(),
		DailyUsage: row.DailyUsage,
		LastReset:  row.LastReset,
	})
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if ctxutil.RoleFromCtx(r.Context()) != auth.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}
