package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"crash/internal/cache"
	"crash/internal/database"
	"crash/internal/game"
)

type FiberServer struct {
	*fiber.App

	db        database.Service // nil when running on the in-memory store
	store     game.Store
	cache     cache.Service // nil when Redis is unavailable
	archive   *cache.Archive
	hub       *game.Hub
	scheduler *game.Scheduler
}

func New() *FiberServer {
	var db database.Service
	var store game.Store
	if os.Getenv("CRASH_DB_DISABLE") != "" {
		mem := game.NewMemStore()
		seedDevUsers(mem)
		store = mem
		log.Println("[SERVER] database disabled, using in-memory store")
	} else {
		db = database.New()
		store = db
	}

	redisService := cache.New()
	var archive *cache.Archive
	var archiver game.RoundArchiver
	if redisService != nil {
		archive = cache.NewArchive(redisService.GetClient())
		archiver = archive
	} else {
		log.Println("[SERVER] running without Redis round archive")
	}

	return newServer(game.DefaultConfig(), store, db, redisService, archive, archiver)
}

// newServer wires the engine together; tests call it with an in-memory store
// and shrunk timings.
func newServer(cfg game.Config, store game.Store, db database.Service, cacheSvc cache.Service, archive *cache.Archive, archiver game.RoundArchiver) *FiberServer {
	hub := game.NewHub()
	scheduler := game.NewScheduler(cfg, store, hub, game.NewGenerator(), archiver)

	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "crash",
			AppName:       "crash",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
		}),

		db:        db,
		store:     store,
		cache:     cacheSvc,
		archive:   archive,
		hub:       hub,
		scheduler: scheduler,
	}

	server.App.Use(recover.New())
	server.App.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	scheduler.Start()
	log.Println("[SERVER] round engine started")

	return server
}

// Shutdown stops the round engine and closes external connections.
func (s *FiberServer) Shutdown() error {
	log.Println("[SERVER] shutting down...")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// seedDevUsers gives database-less mode something to play with.
func seedDevUsers(store game.Store) {
	for _, u := range []struct {
		name    string
		balance float64
	}{
		{"admin", 10000},
		{"player", 1000},
	} {
		if _, err := store.CreateUser(context.Background(), u.name, u.balance); err != nil {
			log.Printf("[SERVER] seeding user %s failed: %v", u.name, err)
		}
	}
}
