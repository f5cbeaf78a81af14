package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traineehub/internal/card"
	"traineehub/internal/cloudinary"
	"traineehub/internal/config"
	"traineehub/internal/queue"
	"traineehub/internal/store"
	"traineehub/internal/trainee"
)

// Worker consumes card-render jobs: render the trainee's ID card, upload it
// to Cloudinary, and write the public URL back onto the trainee row.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var jobs queue.Queue
	if cfg.QueueBackend == "memory" {
		jobs = queue.NewInMemory(64)
	} else {
		jobs = queue.NewRedisQueue(redisClient.Client, "traineehub:cards")
	}

	repo := trainee.NewRepository(db.Client)

	renderer, err := card.NewRenderer()
	if err != nil {
		log.Fatalf("renderer init failed: %v", err)
	}

	var cdn *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdn = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set); cards will render but not upload")
	}

	messages, err := jobs.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for card jobs...")
	for msg := range messages {
		if msg.Type != queue.TypeCardRender {
			continue
		}

		id := string(msg.Body)
		log.Printf("rendering card for trainee %s", id)

		t, err := repo.Get(ctx, id)
		if err != nil {
			log.Printf("fetch trainee %s failed: %v", id, err)
			continue
		}

		img, err := renderer.Render(t)
		if err != nil {
			log.Printf("card render failed for %s: %v", id, err)
			continue
		}

		if cdn == nil {
			continue
		}

		result, err := cdn.Upload(t.ID, img)
		if err != nil {
			log.Printf("card upload failed for %s: %v", id, err)
			continue
		}

		// Upload landed; a failed attach orphans the asset. Log loudly so a
		// reconciliation pass can retry the attach later.
		if err := repo.AttachCard(ctx, t.ID, result.SecureURL); err != nil {
			log.Printf("PARTIAL FAILURE: card uploaded for %s at %s but attach failed: %v", id, result.SecureURL, err)
			continue
		}
		log.Printf("card attached for %s (%d bytes)", id, result.Bytes)

		time.Sleep(10 * time.Millisecond)
	}

	log.Println("worker stopped")
}
