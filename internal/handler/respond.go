package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/MohamedElaraby99/crmshehab-sub000/internal/items"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/reconcile"
	"github.com/MohamedElaraby99/crmshehab-sub000/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// isBadInput checks if the error names a problem with the caller's
// input rather than a server failure.
func isBadInput(err error) bool {
	return errors.Is(err, session.ErrUnknownField) ||
		errors.Is(err, items.ErrUnknownField) ||
		errors.Is(err, items.ErrInvalidQuantity) ||
		errors.Is(err, items.ErrInvalidPrice) ||
		errors.Is(err, items.ErrLastItem) ||
		errors.Is(err, reconcile.ErrUnknownField) ||
		errors.Is(err, reconcile.ErrInvalidValue) ||
		errors.Is(err, reconcile.ErrVendorRequired) ||
		errors.Is(err, reconcile.ErrNoItems)
}

// respondSessionError maps session operation errors to HTTP status
// codes. Anything unrecognized is treated as a failed persistence call.
func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, session.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, items.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
	case errors.Is(err, session.ErrNotOwned), errors.Is(err, session.ErrNotEditable),
		errors.Is(err, reconcile.ErrFieldNotEditable):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrClosed), errors.Is(err, session.ErrSubmitInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case isBadInput(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: session operation: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "order could not be saved"})
	}
}
