// Command main fills the Warbler database with fake data.
package main

import (
	"flag"
	"log"

	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numMessages := flag.Int("messages", 300, "Number of messages to create")
	follows := flag.Int("follows", 10, "Users each user follows")
	likes := flag.Int("likes", 15, "Messages each user likes")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	sum, err := seed.NewSeeder(db, *randSeed).Run(seed.Options{
		NumUsers:       *numUsers,
		NumMessages:    *numMessages,
		FollowsPerUser: *follows,
		LikesPerUser:   *likes,
		ShouldClean:    *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d messages, %d follows, %d likes", sum.Users, sum.Messages, sum.Follows, sum.Likes)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
