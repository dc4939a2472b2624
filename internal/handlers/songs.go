package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gigstack/setlistgo/internal/models"
)

// listSongs returns the current song collection
func (r *Router) listSongs(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"songs": r.store.Songs(),
	})
}

// createSong creates a song optimistically and reports the reconciled copy
func (r *Router) createSong(w http.ResponseWriter, req *http.Request) {
	var song models.Song
	if err := json.NewDecoder(req.Body).Decode(&song); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := r.store.CreateSong(req.Context(), song)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"song":        created,
		"unconfirmed": created.Unconfirmed,
	})
}

// updateSong updates an existing song
func (r *Router) updateSong(w http.ResponseWriter, req *http.Request) {
	var song models.Song
	if err := json.NewDecoder(req.Body).Decode(&song); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	song.ID = mux.Vars(req)["id"]

	updated, err := r.store.UpdateSong(req.Context(), song)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"song":        updated,
		"unconfirmed": updated.Unconfirmed,
	})
}

// deleteSong deletes a song and cascades through every setlist
func (r *Router) deleteSong(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	if err := r.store.DeleteSong(req.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
