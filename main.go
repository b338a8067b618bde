package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aptitude-service/internal/auth"
	"aptitude-service/internal/config"
	"aptitude-service/internal/db"
	"aptitude-service/internal/event"
	"aptitude-service/internal/handlers"
	"aptitude-service/internal/middleware"
	"aptitude-service/internal/repository"
	"aptitude-service/internal/selection"
	"aptitude-service/internal/service"
	"aptitude-service/internal/source"
	"aptitude-service/pkg/discovery"

	"aptitude-service/internal/adaptive"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	if cfg.MongoURI == "" {
		log.Fatal("MONGO_URI is required")
	}
	db.InitMongo(cfg.MongoURI)
	database := db.Client.Database(cfg.MongoDatabase)

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQURI != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, domain events will not be published")
	}

	// Redis for rate limiting
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	} else {
		log.Println("Redis not configured, rate limiting disabled")
	}

	// Consul registration is optional: the service runs standalone in dev.
	var registry *discovery.ServiceRegistry
	if cfg.ConsulAddress != "" {
		var err error
		registry, err = discovery.NewServiceRegistry(discovery.Options{
			ConsulAddress:  cfg.ConsulAddress,
			ServiceID:      cfg.ServiceID,
			ServiceName:    cfg.ServiceName,
			ServiceAddress: cfg.ServiceAddress,
			ServicePort:    cfg.Port,
			HealthPath:     "/public/aptitude/health",
		})
		if err != nil {
			log.Printf("Consul client init failed, continuing without discovery: %v", err)
			registry = nil
		} else if err := registry.Register(); err != nil {
			log.Printf("Consul registration failed, continuing without discovery: %v", err)
		}
	}

	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://evolvia.phrimp.io.vn"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Question sourcing: Mongo bank topped up by the generator service.
	generator := source.NewGeneratorClient(cfg.GeneratorServiceName, cfg.GeneratorBaseURL, registry)
	questionSource := source.NewMongoSource(database, generator)
	selector := selection.NewSelector(questionSource, rand.New(rand.NewSource(time.Now().UnixNano())))

	engine := adaptive.NewEngine(config.AdaptiveConfig())

	sessionRepo := repository.NewSessionRepository(database)
	responseRepo := repository.NewResponseRepository(database)
	resultRepo := repository.NewResultRepository(database)

	sessionService := service.NewSessionService(sessionRepo, responseRepo, resultRepo, selector, engine)
	resultService := service.NewResultService(resultRepo)

	sessionHandler := handlers.NewSessionHandler(sessionService)
	resultHandler := handlers.NewResultHandler(resultService)

	setupPublicRoutes(r, sessionHandler)
	setupProtectedRoutes(r, cfg, redisClient, sessionHandler, resultHandler, publisher)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Printf("[Main] aptitude-service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Main] Shutting down")
	if registry != nil {
		registry.Deregister()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Main] Forced shutdown: %v", err)
	}
}

func setupPublicRoutes(r *gin.Engine, sessionHandler *handlers.SessionHandler) {
	public := r.Group("/public/aptitude")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": "aptitude-service",
				"time":    time.Now(),
			})
		})
		public.GET("/session/:id/progress", sessionHandler.GetSessionProgress)
	}
}

func setupProtectedRoutes(
	r *gin.Engine,
	cfg *config.Config,
	redisClient *redis.Client,
	sessionHandler *handlers.SessionHandler,
	resultHandler *handlers.ResultHandler,
	publisher *event.EventPublisher,
) {
	protected := r.Group("/protected/aptitude")
	protected.Use(auth.Middleware(cfg.JWTSecret))
	protected.Use(middleware.RateLimit(redisClient, cfg.RateLimitPerMinute))

	session := protected.Group("/session")
	{
		session.POST("/initialize", func(c *gin.Context) {
			sessionHandler.InitializeSession(c)
			publisher.Publish("aptitude.session.initialized", gin.H{
				"user_id":   c.GetHeader("X-User-ID"),
				"timestamp": time.Now(),
			})
		})

		session.GET("/next-question/:sessionId", func(c *gin.Context) {
			sessionHandler.GetNextQuestion(c)
			publisher.Publish("aptitude.question.requested", gin.H{
				"session_id": c.Param("sessionId"),
				"user_id":    c.GetHeader("X-User-ID"),
				"timestamp":  time.Now(),
			})
		})

		session.POST("/submit-answer", func(c *gin.Context) {
			sessionHandler.SubmitAnswer(c)
			publisher.Publish("aptitude.answer.submitted", gin.H{
				"user_id":   c.GetHeader("X-User-ID"),
				"timestamp": time.Now(),
			})
		})

		session.POST("/complete/:sessionId", func(c *gin.Context) {
			sessionHandler.CompleteSession(c)
			publisher.Publish("aptitude.session.completed", gin.H{
				"session_id": c.Param("sessionId"),
				"user_id":    c.GetHeader("X-User-ID"),
				"timestamp":  time.Now(),
			})
		})

		session.POST("/abandon/:sessionId", func(c *gin.Context) {
			sessionHandler.AbandonSession(c)
			publisher.Publish("aptitude.session.abandoned", gin.H{
				"session_id": c.Param("sessionId"),
				"user_id":    c.GetHeader("X-User-ID"),
				"timestamp":  time.Now(),
			})
		})

		session.GET("/resume/:sessionId", func(c *gin.Context) {
			sessionHandler.ResumeSession(c)
			publisher.Publish("aptitude.session.resumed", gin.H{
				"session_id": c.Param("sessionId"),
				"user_id":    c.GetHeader("X-User-ID"),
				"timestamp":  time.Now(),
			})
		})

		session.GET("/find-in-progress/:studentId", sessionHandler.FindInProgressSession)
	}

	results := protected.Group("/results")
	{
		results.GET("/session/:sessionId", resultHandler.GetSessionResults)
		results.GET("/student/:studentId", resultHandler.GetStudentResults)
	}
}
