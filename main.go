package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"levelUpAPI/handlers"
	"levelUpAPI/middleware"
	"levelUpAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool             *pgxpool.Pool
	userService        *services.UserService
	activityService    *services.ActivityService
	planService        *services.PlanService
	achievementService *services.AchievementService
	profileService     *services.ProfileService
	leaderboardService *services.LeaderboardService
	feedbackService    *services.FeedbackService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to Postgres")

	userService = services.NewUserService(dbPool)
	activityService = services.NewActivityService(dbPool)
	planService = services.NewPlanService(dbPool)
	achievementService = services.NewAchievementService(dbPool)
	profileService = services.NewProfileService(dbPool)
	leaderboardService = services.NewLeaderboardService(dbPool)
	feedbackService = services.NewFeedbackService(dbPool)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	profileHandler := handlers.NewProfileHandler(profileService, userService)
	activityHandler := handlers.NewActivityHandler(activityService)
	planHandler := handlers.NewPlanHandler(planService)
	achievementHandler := handlers.NewAchievementHandler(achievementService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	adminHandler := handlers.NewAdminHandler(achievementService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	registry := middleware.NewVisitorRegistry(rate.Limit(5), 10, 3*time.Minute)
	go registry.Cleanup()

	r.Use(registry.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "levelUp-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", profileHandler.GetUser).Methods("GET")
	protected.HandleFunc("/user/update-profile", profileHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/dashboard", profileHandler.GetDashboard).Methods("GET")
	protected.HandleFunc("/user/stats", profileHandler.GetUserStats).Methods("GET")
	protected.HandleFunc("/user/calendar", profileHandler.GetCalendar).Methods("GET")

	protected.HandleFunc("/user/activities", activityHandler.RecordActivity).Methods("POST")
	protected.HandleFunc("/user/activities", activityHandler.GetActivities).Methods("GET")

	protected.HandleFunc("/user/plans", planHandler.CreatePlan).Methods("POST")
	protected.HandleFunc("/user/plans", planHandler.GetPlan).Methods("GET")
	protected.HandleFunc("/user/plans/items", planHandler.ToggleItem).Methods("PUT")
	protected.HandleFunc("/user/plans/finalize", planHandler.FinalizePlan).Methods("POST")

	protected.HandleFunc("/user/achievements", achievementHandler.GetAchievements).Methods("GET")
	protected.HandleFunc("/user/achievements/claim", achievementHandler.ClaimAchievement).Methods("POST")

	protected.HandleFunc("/leaderboard/school", leaderboardHandler.GetSchoolLeaderboard).Methods("GET")
	protected.HandleFunc("/leaderboard/global", leaderboardHandler.GetGlobalLeaderboard).Methods("GET")

	protected.HandleFunc("/feedback", feedbackHandler.CreateFeedback).Methods("POST")
	protected.HandleFunc("/user/feedback", feedbackHandler.GetMyFeedback).Methods("GET")

	protected.HandleFunc("/admin/achievements/rotate", adminHandler.RotateAchievements).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
