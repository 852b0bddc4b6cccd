package web

import (
	"context"
	"net/http"

	"github.com/hpungsan/langroutes/internal/cache"
)

// CacheStore is the part of cache.Store the cache routes use.
type CacheStore interface {
	Entries(ctx context.Context) ([]cache.Entry, error)
	Purge(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// HandleCacheEntries handles GET /cache — cached languages, most recently used first.
func (h *Handlers) HandleCacheEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cache.Entries(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

// HandleCachePurge handles POST /cache/purge — drop expired entries.
func (h *Handlers) HandleCachePurge(w http.ResponseWriter, r *http.Request) {
	n, err := h.cache.Purge(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"purged": n})
}

// HandleCacheClear handles DELETE /cache — drop every entry.
func (h *Handlers) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"cleared": true})
}
