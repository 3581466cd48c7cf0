package main

import (
	"os"

	"techink/internal/db"
	"techink/internal/engagement"
	"techink/internal/router"
	"techink/internal/services"
	"techink/internal/store"
	"techink/internal/utils/log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// managerCacheSize bounds how many signed-in users keep a reconciled
// engagement manager in memory at once.
const managerCacheSize = 4096

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Log.Info("No .env file found, reading env vars from system")
	}

	// Initialize Database
	db.Init()
	st := store.New(db.DB)

	// Warm the leaderboard mirror connection
	services.GetLeaderboard()

	registry, err := engagement.NewRegistry(st, managerCacheSize)
	if err != nil {
		log.Log.WithError(err).Fatal("failed to create engagement registry")
	}

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	cookieStore := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("techink_session", cookieStore))

	router.RegisterRoutes(r, st, registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Log.Infof("Tech Ink Insights server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Log.WithError(err).Fatal("server exited")
	}
}
