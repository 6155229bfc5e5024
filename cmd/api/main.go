package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/maroffo/BehindBarsPulse/db"
	"github.com/maroffo/BehindBarsPulse/internal/config"
	"github.com/maroffo/BehindBarsPulse/internal/handler"
	"github.com/maroffo/BehindBarsPulse/internal/store"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	snapshotStore, cleanup, err := openStore(cfg)
	if err != nil {
		log.Fatalf("error opening snapshot store: %v", err)
	}
	defer cleanup()

	contextHandler := handler.NewContextHandler(snapshotStore, cfg)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/context", contextHandler.GetContext)
	r.GET("/threads", contextHandler.GetThreads)
	r.GET("/characters", contextHandler.GetCharacters)
	r.GET("/followups", contextHandler.GetFollowUps)
	r.GET("/health", contextHandler.GetHealth)

	err = r.Run(":8080")
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

// openStore picks the postgres backend when DATABASE_URL is set, the
// JSON file backend otherwise.
func openStore(cfg config.Config) (store.Store, func(), error) {
	if os.Getenv("DATABASE_URL") != "" {
		if err := db.Connect(); err != nil {
			return nil, nil, err
		}
		s, err := store.NewPostgresStore(db.DB, cfg)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, db.Close, nil
	}
	return store.NewFileStore(cfg.SnapshotPath, cfg), func() {}, nil
}
