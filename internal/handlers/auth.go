package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"member-ledger/internal/auth"
	"member-ledger/internal/metrics"
	"member-ledger/internal/session"
	"member-ledger/internal/storage"
)

const invalidCredentials = "Usuário ou senha inválidos"

// dummyHash is compared against when no account matches, so unknown and
// inactive usernames cost as much as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("membros-dummy-password")
	if err != nil {
		panic(err)
	}
	return hash
})

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates an active user and starts a fixed-lifetime session.
// Unknown users, inactive users and wrong passwords get the same response.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		h.checkPassword(req.Password, dummyHash())
		metrics.RecordLogin("invalid")
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}

	user, err := h.store.GetActiveUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.checkPassword(req.Password, dummyHash())
			metrics.RecordLogin("invalid")
			writeError(w, http.StatusUnauthorized, invalidCredentials)
			return
		}
		metrics.RecordLogin("error")
		h.logger.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Erro no banco")
		return
	}

	if !h.checkPassword(req.Password, user.PasswordHash) {
		metrics.RecordLogin("invalid")
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}

	payload := user.SessionUser()
	if err := h.sessions.Start(w, r, payload); err != nil {
		metrics.RecordLogin("error")
		h.logger.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "Erro ao criar sessão")
		return
	}

	metrics.RecordLogin("success")
	h.logger.Info("user logged in", "user_id", payload.ID, "username", payload.Username)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logado", "user": payload})
}

// Logout destroys the current session, if any.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		h.logger.Error("failed to destroy session", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout efetuado"})
}

// Me returns the current session user or null. It does not require a session.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.sessions.Current(r)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			h.logger.Error("session lookup failed", "error", err)
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
