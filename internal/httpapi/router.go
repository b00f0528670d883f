package httpapi

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DPT73/urban-art-project/internal/ratelimit"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// StaticFiles holds the storefront assets served at the root.
	StaticFiles fs.FS
}

// NewRouter wires the full HTTP surface: the JSON API under /api, the
// webhook receiver, a health check and the static storefront.
func NewRouter(
	checkoutHandler *CheckoutHandler,
	webhookHandler *WebhookHandler,
	limiter *ratelimit.Limiter,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(MaxBodyMiddleware(cfg.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not_found", "Not found")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimitMiddleware(limiter))
		r.Get("/config", checkoutHandler.GetConfig)
		r.Post("/create-checkout-session", checkoutHandler.CreateSession)
		r.Get("/checkout-session/{sessionID}", checkoutHandler.GetSession)
	})

	r.Post("/webhook", webhookHandler.Receive)

	if cfg.StaticFiles != nil {
		fileServer := http.FileServer(http.FS(cfg.StaticFiles))
		r.Get("/", fileServer.ServeHTTP)
		r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
			if !staticFileExists(cfg.StaticFiles, req.URL.Path) {
				respondError(w, http.StatusNotFound, "not_found", "Not found")
				return
			}
			fileServer.ServeHTTP(w, req)
		})
	}

	return r
}

func staticFileExists(files fs.FS, urlPath string) bool {
	name := urlPath
	for len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	if name == "" {
		name = "index.html"
	}
	info, err := fs.Stat(files, name)
	return err == nil && !info.IsDir()
}
