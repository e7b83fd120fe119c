package http

import (
	"net/http"

	"quizmaster-service/internal/app"
)

// ReportHandler serves per-user score history and the leaderboard snapshot.
type ReportHandler struct {
	reports *app.ReportService
	board   *app.LeaderboardHub
}

func NewReportHandler(reports *app.ReportService, board *app.LeaderboardHub) *ReportHandler {
	return &ReportHandler{reports: reports, board: board}
}

func (h *ReportHandler) MyScores(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	scores, err := h.reports.UserScores(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h *ReportHandler) MyPerformance(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	performance, err := h.reports.UserPerformance(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, performance)
}

func (h *ReportHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.Snapshot(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
