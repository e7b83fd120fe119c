package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizmaster-service/internal/app"
)

// AttemptHandler exposes the attempt lifecycle: start/continue, save,
// submit, and timeout-driven auto-submit.
type AttemptHandler struct {
	attempts *app.AttemptService
}

func NewAttemptHandler(attempts *app.AttemptService) *AttemptHandler {
	return &AttemptHandler{attempts: attempts}
}

type answersRequest struct {
	Answers map[string]string `json:"answers"`
}

// Start handles GET /api/quizzes/{quizID}/attempt.
func (h *AttemptHandler) Start(w http.ResponseWriter, r *http.Request) {
	identity, quizID, ok := h.attemptKey(w, r)
	if !ok {
		return
	}
	view, err := h.attempts.Start(r.Context(), identity.UserID, quizID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Save handles POST /api/quizzes/{quizID}/attempt/save.
func (h *AttemptHandler) Save(w http.ResponseWriter, r *http.Request) {
	identity, quizID, ok := h.attemptKey(w, r)
	if !ok {
		return
	}
	var req answersRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.attempts.Save(r.Context(), identity.UserID, quizID, req.Answers); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// Submit handles POST /api/quizzes/{quizID}/attempt/submit.
func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, quizID, ok := h.attemptKey(w, r)
	if !ok {
		return
	}
	// An empty body is fine: saved answers alone then decide the score.
	var req answersRequest
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.attempts.Submit(r.Context(), identity.UserID, quizID, req.Answers)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AutoSubmit handles POST /api/quizzes/{quizID}/attempt/auto-submit, the
// entry point for the client-side countdown. No request body: only saved
// answers count, scored against the frozen attempt state.
func (h *AttemptHandler) AutoSubmit(w http.ResponseWriter, r *http.Request) {
	identity, quizID, ok := h.attemptKey(w, r)
	if !ok {
		return
	}
	result, err := h.attempts.AutoSubmit(r.Context(), identity.UserID, quizID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AttemptHandler) attemptKey(w http.ResponseWriter, r *http.Request) (Identity, int64, bool) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return Identity{}, 0, false
	}
	quizID, err := strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quiz id")
		return Identity{}, 0, false
	}
	return identity, quizID, true
}
