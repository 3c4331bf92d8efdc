package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"levelUpAPI/internal/activity"
	"levelUpAPI/middleware"
	"levelUpAPI/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

func (h *ActivityHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req activity.RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.activityService.RecordActivity(ctx, clerkID, &req)
	if err != nil {
		log.Printf("RecordActivity Handler: Service error: %v", err)
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	middleware.ObserveXPAwarded(req.Category, result.XPEarned)

	respondWithJSON(w, http.StatusCreated, result)
}

func (h *ActivityHandler) GetActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	// Defaults to the trailing 30 days.
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if f := r.URL.Query().Get("from"); f != "" {
		parsed, err := time.Parse("2006-01-02", f)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'from' date, use YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if t := r.URL.Query().Get("to"); t != "" {
		parsed, err := time.Parse("2006-01-02", t)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'to' date, use YYYY-MM-DD")
			return
		}
		to = parsed
	}

	activities, err := h.activityService.GetActivities(ctx, clerkID, from, to)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, activities)
}
