// Command main fills the board database with fake posts.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/kangback324/board/internal/config"
	"github.com/kangback324/board/internal/database"
	"github.com/kangback324/board/internal/password"
	"github.com/kangback324/board/internal/repository"
	"github.com/kangback324/board/internal/seed"
	"github.com/kangback324/board/internal/service"
)

func main() {
	numPosts := flag.Int("posts", 20, "Number of posts to create")
	postPassword := flag.String("password", seed.DefaultPassword, "Password shared by every seeded post")
	shouldClean := flag.Bool("clean", false, "Delete every post before seeding")
	randSeed := flag.Int64("seed", 0, "Faker seed (0 picks a random one)")
	flag.Parse()

	log.Println("🌱 Board Seeder")
	log.Println("===============")
	log.Printf("Target: %d posts, clean=%v\n", *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.DBAutoMigrate {
		if err := database.RunMigrations(cfg); err != nil {
			log.Fatalf("❌ Migrations failed: %v", err)
		}
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	posts := service.NewPostService(repository.NewPostRepository(db), password.NewBcrypt(cfg.BcryptCost))
	s := seed.NewSeeder(db, posts, *randSeed)
	ctx := context.Background()

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if err := s.SeedPosts(ctx, *numPosts, *postPassword); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done!")
}
