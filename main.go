package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"townreq-be/config"
	"townreq-be/controllers"
	"townreq-be/models"
	"townreq-be/routes"
	"townreq-be/services"
	"townreq-be/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	settings := config.LoadSettings()

	db := config.ConnectDB()
	if db == nil {
		log.Fatal("Failed to connect to MongoDB")
	}
	log.Println("MongoDB connection established successfully!")

	config.ConnectRedis()

	if err := models.EnsureRequestIndexes(db.Collection("requests")); err != nil {
		log.Printf("Failed to ensure request indexes: %v", err)
	}

	store := storage.NewMongoStore(db)

	objects, err := storage.NewGridFSObjects(db)
	if err != nil {
		log.Fatalf("Failed to open GridFS bucket: %v", err)
	}

	queue := storage.NewRedisScanQueue(config.RedisClient, settings.ScanQueueKey)
	notifier := storage.NewRedisNotifier(config.RedisClient, settings.EventChannel)
	classifier := storage.NewClamAVClassifier(clamAVAddr(), objects)

	requestService := services.NewRequestService(store, notifier, settings.MaxPageSize)
	commentService := services.NewCommentService(store, notifier, settings.MaxCommentLength)
	attachmentService := services.NewAttachmentService(store, objects, queue, notifier, settings.MaxUploadBytes)
	controllers.Init(requestService, commentService, attachmentService)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	worker := services.NewScanWorker(store, queue, classifier, notifier, settings.ScanWorkers)
	go worker.Run(workerCtx)

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		stopWorkers()
	}()

	r := gin.Default()

	routes.AuthRoutes(r)
	routes.RequestRoutes(r, settings.RequestRateLimit)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func clamAVAddr() string {
	if addr := os.Getenv("CLAMAV_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:3310"
}
