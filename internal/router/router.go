package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/catalog"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/config"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/handler"
	mw "github.com/MohamedElaraby99/crmshehab-sub000/internal/middleware"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/reconcile"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/session"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/ws"
)

// Deps carries the shared components the routes are built from.
type Deps struct {
	Cfg        *config.Config
	Registry   *fieldcfg.Registry
	Catalog    *catalog.Cache
	Reconciler *reconcile.Reconciler
	Sessions   *session.Manager
	Hub        *ws.Hub
	CRM        crm.API
}

// New creates a Chi router with all application routes wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(mw.Metrics)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, d.Cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(d.Cfg.JWTSecret))

		fieldConfigHandler := handler.NewFieldConfigHandler(d.Registry)
		r.Route("/field-configs", fieldConfigHandler.RegisterRoutes)

		sessionHandler := handler.NewSessionHandler(d.Sessions)
		r.Route("/sessions", sessionHandler.RegisterRoutes)

		productHandler := handler.NewProductHandler(d.Catalog)
		r.Route("/products", productHandler.RegisterRoutes)

		cache := d.Reconciler.Cache()
		orderHandler := handler.NewOrderHandler(cache, d.Reconciler, d.CRM, d.Hub)
		gridHandler := handler.NewGridHandler(d.Registry, cache, d.Reconciler, d.Catalog)
		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterRoutes(r)
			gridHandler.RegisterRoutes(r)
		})

		// CRM webhook ingress (service token carries the admin role)
		webhookHandler := handler.NewWebhookHandler(d.Reconciler, cache, d.Catalog, d.Hub)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))
			r.Route("/events", webhookHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
