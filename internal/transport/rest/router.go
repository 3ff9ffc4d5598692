package rest

import "net/http"

// Handlers groups the REST handlers mounted on the router.
type Handlers struct {
	Generate *GenerateHandler
	Health   *HealthHandler
	Admin    *AdminHandler
}

// NewRouter builds the route table. Cross-cutting middleware is applied by
// the caller around the returned handler.
func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/generate", h.Generate.Generate)

	mux.HandleFunc("GET /health", h.Health.Health)
	mux.HandleFunc("GET /health/live", h.Health.Live)
	mux.HandleFunc("GET /health/ready", h.Health.Ready)

	mux.HandleFunc("GET /admin/cache", h.Admin.CacheList)
	mux.HandleFunc("DELETE /admin/cache/{hash}", h.Admin.CacheDelete)
	mux.HandleFunc("GET /admin/quota/{user_id}", h.Admin.QuotaGet)

	return mux
}
