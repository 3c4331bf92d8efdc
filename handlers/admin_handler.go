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

type AdminHandler struct {
	achievementService *services.AchievementService
}

func NewAdminHandler(achievementService *services.AchievementService) *AdminHandler {
	return &AdminHandler{
		achievementService: achievementService,
	}
}

// RotateAchievements installs the achievement set for a month. The service
// rejects callers without the ADMIN role.
func (h *AdminHandler) RotateAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req achievement.RotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "month_key must look like 2025-09")
		return
	}

	defs, err := h.achievementService.RotateAchievements(ctx, clerkID, req.MonthKey)
	if err != nil {
		log.Printf("RotateAchievements Handler: Service error: %v", err)
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"month_key":   req.MonthKey,
		"definitions": defs,
	})
}
