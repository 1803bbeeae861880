package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/aulaprep/backend/internal/auth"
	"github.com/aulaprep/backend/internal/database"
	"github.com/aulaprep/backend/internal/engine"
	"github.com/aulaprep/backend/internal/hints"
	"github.com/aulaprep/backend/internal/middleware"
	"github.com/aulaprep/backend/internal/progress"
)

func main() {
	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize services
	store := engine.NewPostgresStore(db)
	progressService := progress.NewService(progress.NewStore(db))
	engineService := engine.NewService(engine.ConfigFromEnv(), store, store, progressService)
	hintService := hints.NewService()

	// Initialize handlers
	authHandler := auth.NewHandler(db)
	engineHandler := engine.NewHandler(engineService)
	progressHandler := progress.NewHandler(progressService)
	hintHandler := hints.NewHandler(hintService, engineService)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/sessions", engineHandler.CreateSession).Methods("POST")
	protected.HandleFunc("/sessions/{id}", engineHandler.GetSession).Methods("GET")
	protected.HandleFunc("/sessions/{id}/answers", engineHandler.SubmitAnswer).Methods("POST")
	protected.HandleFunc("/sessions/{id}/next", engineHandler.NextItem).Methods("GET")
	protected.HandleFunc("/sessions/{id}/finish", engineHandler.ForceFinish).Methods("POST")

	protected.HandleFunc("/progress", progressHandler.GetProgress).Methods("GET")
	protected.HandleFunc("/questions/{id}/hint", hintHandler.GetHint).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
