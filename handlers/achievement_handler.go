package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"levelUpAPI/internal/achievement"
	"levelUpAPI/middleware"
	"levelUpAPI/services"
)

type AchievementHandler struct {
	achievementService *services.AchievementService
}

func NewAchievementHandler(achievementService *services.AchievementService) *AchievementHandler {
	return &AchievementHandler{
		achievementService: achievementService,
	}
}

func (h *AchievementHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	achievements, err := h.achievementService.GetAchievements(ctx, clerkID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, achievements)
}

func (h *AchievementHandler) ClaimAchievement(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req achievement.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.achievementService.ClaimAchievement(ctx, clerkID, &req)
	if err != nil {
		log.Printf("ClaimAchievement Handler: Service error: %v", err)
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	middleware.IncAchievementClaimed()

	respondWithJSON(w, http.StatusOK, result)
}
