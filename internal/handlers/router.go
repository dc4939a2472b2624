package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gigstack/setlistgo/internal/buildinfo"
	"github.com/gigstack/setlistgo/internal/config"
	"github.com/gigstack/setlistgo/internal/gateway"
	"github.com/gigstack/setlistgo/internal/middleware"
	"github.com/gigstack/setlistgo/internal/store"
	"github.com/gigstack/setlistgo/internal/websocket"
)

// Router wraps the mux router with the store and notification hub
type Router struct {
	*mux.Router
	store *store.Store
	hub   *websocket.Hub
	cfg   *config.Config
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(cfg *config.Config, st *store.Store, hub *websocket.Hub) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		store:  st,
		hub:    hub,
		cfg:    cfg,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")

	// Change notification feed
	r.HandleFunc("/ws", hub.ServeWS).Methods("GET")

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	api.HandleFunc("/status", r.getStatus).Methods("GET")

	api.HandleFunc("/songs", r.listSongs).Methods("GET")
	api.HandleFunc("/songs", r.createSong).Methods("POST")
	api.HandleFunc("/songs/{id}", r.updateSong).Methods("PUT")
	api.HandleFunc("/songs/{id}", r.deleteSong).Methods("DELETE")

	api.HandleFunc("/setlists", r.listSetlists).Methods("GET")
	api.HandleFunc("/setlists", r.createSetlist).Methods("POST")
	api.HandleFunc("/setlists/{id}", r.updateSetlist).Methods("PUT")
	api.HandleFunc("/setlists/{id}", r.deleteSetlist).Methods("DELETE")

	api.HandleFunc("/setlists/{id}/items", r.listItems).Methods("GET")
	api.HandleFunc("/setlists/{id}/items", r.addItem).Methods("POST")
	api.HandleFunc("/setlists/{id}/items", r.stageItems).Methods("PUT")
	api.HandleFunc("/setlists/{id}/items/save", r.saveItems).Methods("POST")
	api.HandleFunc("/setlists/{id}/items/cancel", r.cancelItems).Methods("POST")

	return r
}

// Handler returns the router wrapped with the outer middleware stack. Path
// lowercasing has to happen before route matching, so it cannot go through
// mux's Use chain.
func (r *Router) Handler() http.Handler {
	return middleware.CaseInsensitiveMiddleware(r.Router)
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"started": buildinfo.StartTime,
		"build":   buildinfo.CommitHash,
	})
}

// getStatus returns a snapshot of the store
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.store.Status())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondStoreError maps engine errors to HTTP statuses. Errors propagate
// from the gateway unchanged, so the taxonomy is checked here once.
func respondStoreError(w http.ResponseWriter, err error) {
	var notFound *store.NotFoundError
	var confErr *gateway.ConfigurationError
	var transErr *gateway.TransportError

	switch {
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &confErr):
		respondError(w, http.StatusInternalServerError, confErr.Error())
	case errors.As(err, &transErr):
		respondError(w, http.StatusBadGateway, transErr.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
