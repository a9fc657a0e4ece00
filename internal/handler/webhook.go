package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/catalog"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/crm"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/reconcile"
)

// ChangeBroadcaster fans entity-change events out to connected screens.
// Satisfied by *ws.Hub.
type ChangeBroadcaster interface {
	OrderChanged(eventType string, order *crm.Order)
	ProductChanged(eventType, productID string)
}

// WebhookHandler ingests change notifications from the CRM: refresh
// local state for the named entity, then rebroadcast so every open
// screen refetches.
type WebhookHandler struct {
	fetcher   OrderFetcher
	cache     *reconcile.Cache
	catalog   *catalog.Cache
	broadcast ChangeBroadcaster
}

func NewWebhookHandler(fetcher OrderFetcher, cache *reconcile.Cache, cat *catalog.Cache, broadcast ChangeBroadcaster) *WebhookHandler {
	return &WebhookHandler{fetcher: fetcher, cache: cache, catalog: cat, broadcast: broadcast}
}

// RegisterRoutes registers the event ingress on the given Chi router.
// Expected to be mounted at /events.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Receive)
}

type webhookEvent struct {
	Type    string `json:"type"`
	Payload struct {
		ID string `json:"id"`
	} `json:"payload"`
}

// Receive handles POST /events.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var ev webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	switch ev.Type {
	case enum.EventOrderDeleted:
		if ev.Payload.ID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "event payload missing id"})
			return
		}
		// Grab the cached copy first so the owning vendor's room can
		// still be resolved.
		order, ok := h.cache.Get(ev.Payload.ID)
		if !ok {
			order = crm.Order{ID: ev.Payload.ID}
		}
		h.cache.Delete(ev.Payload.ID)
		h.broadcast.OrderChanged(enum.EventOrderDeleted, &order)

	case enum.EventOrderCreated, enum.EventOrderUpdated:
		if ev.Payload.ID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "event payload missing id"})
			return
		}
		order, err := h.fetcher.Refetch(r.Context(), ev.Payload.ID)
		if err != nil {
			if errors.Is(err, crm.ErrNotFound) {
				// Gone upstream before the refetch landed.
				h.broadcast.OrderChanged(enum.EventOrderDeleted, &crm.Order{ID: ev.Payload.ID})
				break
			}
			log.Printf("ERROR: refetch order %s for %s event: %v", ev.Payload.ID, ev.Type, err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "order refresh failed"})
			return
		}
		h.broadcast.OrderChanged(ev.Type, &order)

	case enum.EventProductCreated, enum.EventProductUpdated, enum.EventProductDeleted:
		if err := h.catalog.Refresh(r.Context()); err != nil {
			log.Printf("ERROR: catalog refresh for %s event: %v", ev.Type, err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "catalog refresh failed"})
			return
		}
		h.broadcast.ProductChanged(ev.Type, ev.Payload.ID)

	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown event type"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
