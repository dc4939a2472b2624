package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gigstack/setlistgo/internal/models"
)

// listSetlists returns setlists with their visible item lists
func (r *Router) listSetlists(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"setlists": r.store.Setlists(),
	})
}

// createSetlist creates a setlist optimistically
func (r *Router) createSetlist(w http.ResponseWriter, req *http.Request) {
	var setlist models.Setlist
	if err := json.NewDecoder(req.Body).Decode(&setlist); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := r.store.CreateSetlist(req.Context(), setlist)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"setlist":     created,
		"unconfirmed": created.Unconfirmed,
	})
}

// updateSetlist updates setlist metadata
func (r *Router) updateSetlist(w http.ResponseWriter, req *http.Request) {
	var setlist models.Setlist
	if err := json.NewDecoder(req.Body).Decode(&setlist); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	setlist.ID = mux.Vars(req)["id"]

	updated, err := r.store.UpdateSetlist(req.Context(), setlist)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"setlist":     updated,
		"unconfirmed": updated.Unconfirmed,
	})
}

// deleteSetlist deletes a setlist
func (r *Router) deleteSetlist(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	if err := r.store.DeleteSetlist(req.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// listItems returns the visible item list for a setlist
func (r *Router) listItems(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	items, err := r.store.VisibleItems(id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":   items,
		"pending": r.store.HasPendingEdits(id),
	})
}

// addItem appends one item to a setlist
func (r *Router) addItem(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	var item models.SetlistItem
	if err := json.NewDecoder(req.Body).Decode(&item); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	added, err := r.store.AddItem(req.Context(), id, item)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"item": added})
}

// stageItems installs the pending overlay for a setlist
func (r *Router) stageItems(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	var body struct {
		Items []models.SetlistItem `json:"items"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := r.store.StageItems(id, body.Items); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"staged": len(body.Items)})
}

// saveItems commits the pending overlay via sync-items
func (r *Router) saveItems(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	items, err := r.store.SaveItems(req.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// cancelItems discards the pending overlay
func (r *Router) cancelItems(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	items, err := r.store.CancelItems(id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
