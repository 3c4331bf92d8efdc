package handlers

import (
	"context"
	"net/http"
	"time"

	"levelUpAPI/middleware"
	"levelUpAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

func (h *LeaderboardHandler) GetSchoolLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	board, err := h.leaderboardService.GetSchoolLeaderboard(ctx, clerkID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandler) GetGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	board, err := h.leaderboardService.GetGlobalLeaderboard(ctx, clerkID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}
