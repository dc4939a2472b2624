package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gigstack/setlistgo/internal/utils"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Password string `json:"password"`
}

// login exchanges the admin password for a JWT pair
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if r.cfg.AdminPasswordHash == "" {
		respondError(w, http.StatusInternalServerError, "Server not configured for login")
		return
	}

	if !utils.CheckPasswordHash(body.Password, r.cfg.AdminPasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}
