package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"levelUpAPI/internal/feedback"
	"levelUpAPI/middleware"
	"levelUpAPI/services"
)

type FeedbackHandler struct {
	feedbackService *services.FeedbackService
}

func NewFeedbackHandler(feedbackService *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
	}
}

func (h *FeedbackHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req feedback.CreateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.feedbackService.CreateFeedback(ctx, clerkID, &req)
	if err != nil {
		log.Printf("CreateFeedback Handler: Service error: %v", err)
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *FeedbackHandler) GetMyFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	items, err := h.feedbackService.GetFeedbackForStudent(ctx, clerkID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}
