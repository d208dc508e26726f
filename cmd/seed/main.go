// Command seed loads the built-in catalog and optional demo users.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/Cerega32/Bucket-List/internal/config"
	"github.com/Cerega32/Bucket-List/internal/database"
	"github.com/Cerega32/Bucket-List/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of demo users to create (0 for catalog only)")
	maxGoals := flag.Int("goals", 6, "Maximum goals each demo user adds")
	commentChance := flag.Int("comments", 40, "Chance in percent that a completed goal gets a comment")
	shouldClean := flag.Bool("clean", false, "Delete all rows before seeding")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible demo data (0 is random)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d demo users, clean=%v\n", *numUsers, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := seed.Reset(ctx, db); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	catalog, err := seed.DefaultCatalog()
	if err != nil {
		log.Fatalf("❌ Catalog is invalid: %v", err)
	}
	stats, err := seed.LoadCatalog(ctx, db, catalog)
	if err != nil {
		log.Fatalf("❌ Catalog seeding failed: %v", err)
	}
	log.Printf("✓ catalog: %d categories, %d goals, %d lists, %d achievements added",
		stats.Categories, stats.Goals, stats.Lists, stats.Achievements)

	if *numUsers > 0 {
		demo, err := seed.Demo(ctx, db, seed.DemoOptions{
			Users:           *numUsers,
			MaxGoalsPerUser: *maxGoals,
			CommentChance:   *commentChance,
			RandSeed:        *randSeed,
		})
		if err != nil {
			log.Fatalf("❌ Demo seeding failed: %v", err)
		}
		log.Printf("✓ %d users, %d completions, %d lists, %d comments",
			demo.Users, demo.Completions, demo.Lists, demo.Comments)
		log.Printf("📧 All demo users have the password: %s", seed.DemoPassword)
	}

	log.Println("✨ All done!")
}
