package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/enum"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/fieldcfg"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/middleware"
)

// FieldConfigHandler serves the resolved form-field configuration and
// lets admins replace the persisted set.
type FieldConfigHandler struct {
	registry *fieldcfg.Registry
}

func NewFieldConfigHandler(registry *fieldcfg.Registry) *FieldConfigHandler {
	return &FieldConfigHandler{registry: registry}
}

// RegisterRoutes registers field-config endpoints on the given Chi
// router. Expected to be mounted at /field-configs.
func (h *FieldConfigHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.With(middleware.RequireRole(enum.RoleAdmin)).Put("/", h.Put)
}

// Get handles GET /field-configs. Admins receive the full resolved
// set; vendors only the fields visible to them.
func (h *FieldConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	fields, err := h.registry.Resolve(r.Context(), nil)
	if err != nil {
		log.Printf("ERROR: resolve field configs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if claims.Role != enum.RoleAdmin {
		fields = fields.VisibleTo(claims.Role)
	}
	writeJSON(w, http.StatusOK, fields)
}

// Put handles PUT /field-configs. The body is the complete new
// configuration list; partial updates are not supported.
func (h *FieldConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var cfgs []fieldcfg.FieldConfig
	if err := json.NewDecoder(r.Body).Decode(&cfgs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.registry.Persist(r.Context(), cfgs); err != nil {
		if isConfigError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: persist field configs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, fieldcfg.Normalize(cfgs))
}

// isConfigError checks if the error came from config validation rather
// than the store.
func isConfigError(err error) bool {
	var verrs validatorv10.ValidationErrors
	return errors.Is(err, fieldcfg.ErrEmptyConfig) ||
		errors.Is(err, fieldcfg.ErrDuplicateField) ||
		errors.As(err, &verrs)
}
