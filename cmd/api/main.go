package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"traineehub/internal/apperr"
	"traineehub/internal/auth"
	"traineehub/internal/checkin"
	"traineehub/internal/config"
	"traineehub/internal/flagging"
	"traineehub/internal/httpmiddleware"
	"traineehub/internal/queue"
	"traineehub/internal/store"
	"traineehub/internal/trainee"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "traineehub_registrations_total",
		Help: "Trainees registered.",
	})
	checkinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traineehub_checkins_total",
		Help: "Check-in attempts by outcome.",
	}, []string{"outcome"})
	flagsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "traineehub_flags_total",
		Help: "Disciplinary flags recorded.",
	})
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var jobs queue.Queue
	if cfg.QueueBackend == "memory" {
		jobs = queue.NewInMemory(64)
	} else {
		jobs = queue.NewRedisQueue(redisClient.Client, "traineehub:cards")
	}

	traineeRepo := trainee.NewRepository(db.Client)
	checkinRepo := checkin.NewRepository(db.Client)
	flagRepo := flagging.NewRepository(db.Client)

	registration := trainee.NewService(traineeRepo, jobs)
	checkins := checkin.NewService(traineeRepo, checkinRepo, checkin.NewRecentList(redisClient.Client), cfg.Location())
	flags := flagging.NewService(flagRepo, traineeRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/admin/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if cfg.AdminPassword == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login not configured"})
			return
		}
		userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(cfg.AdminUser)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(cfg.AdminPassword)) == 1
		if !userOK || !passOK {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		token, exp, err := auth.Issue(req.Username, "admin", cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": token, "expires_at": exp.Unix()})
	})

	// Registration and check-in are public: both run on the kiosk screen.
	r.POST("/v1/trainees", func(c *gin.Context) {
		var req trainee.RegisterInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := registration.Register(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		registrationsTotal.Inc()
		c.JSON(http.StatusCreated, created)
	})

	r.POST("/v1/checkins", func(c *gin.Context) {
		var req struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := checkins.CheckIn(c.Request.Context(), req.Token)
		if err != nil {
			switch {
			case errors.Is(err, checkin.ErrTraineeNotFound):
				checkinsTotal.WithLabelValues("not_found").Inc()
			case errors.Is(err, checkin.ErrAlreadyCheckedIn):
				checkinsTotal.WithLabelValues("duplicate").Inc()
			default:
				checkinsTotal.WithLabelValues("error").Inc()
			}
			writeError(c, err)
			return
		}
		checkinsTotal.WithLabelValues("ok").Inc()
		c.JSON(http.StatusCreated, res)
	})

	r.GET("/v1/checkins/recent", func(c *gin.Context) {
		entries, err := checkins.Recent(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"checkins": entries})
	})

	admin := r.Group("/v1", auth.AdminAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	admin.GET("/trainees", func(c *gin.Context) {
		limit, offset := 50, 0
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		if v := c.Query("offset"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				offset = parsed
			}
		}
		list, err := traineeRepo.List(c.Request.Context(), c.Query("search"), limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"trainees": list})
	})

	admin.GET("/trainees/:id", func(c *gin.Context) {
		id := c.Param("id")
		t, err := traineeRepo.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		history, err := flags.History(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		attendance, err := checkinRepo.ListByTrainee(c.Request.Context(), id, 50)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"trainee": t, "flags": history, "checkins": attendance})
	})

	admin.GET("/trainees/:id/card", func(c *gin.Context) {
		t, err := traineeRepo.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if t.CardImageURL == nil || *t.CardImageURL == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not rendered yet"})
			return
		}
		c.Redirect(http.StatusFound, *t.CardImageURL)
	})

	admin.POST("/trainees/:id/flags", func(c *gin.Context) {
		var req struct {
			Reason         string `json:"reason" binding:"required"`
			PointsToDeduct int    `json:"points_to_deduct"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := flags.Flag(c.Request.Context(), c.Param("id"), req.Reason, req.PointsToDeduct)
		if err != nil {
			writeError(c, err)
			return
		}
		flagsTotal.Inc()
		c.JSON(http.StatusCreated, res)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// writeError maps service errors to HTTP statuses. Partial failures leave
// inconsistent rows behind and get their own log line so they can be found
// and reconciled.
func writeError(c *gin.Context, err error) {
	var partial *apperr.Partial
	if errors.As(err, &partial) {
		log.Printf("PARTIAL FAILURE: %v", partial)
		c.JSON(http.StatusInternalServerError, gin.H{"error": partial.Error()})
		return
	}

	switch {
	case errors.Is(err, trainee.ErrValidation),
		errors.Is(err, flagging.ErrEmptyReason),
		errors.Is(err, flagging.ErrNegativeDeduction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, trainee.ErrNotFound),
		errors.Is(err, checkin.ErrTraineeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, checkin.ErrAlreadyCheckedIn),
		errors.Is(err, trainee.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("dependency error: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream dependency failed"})
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
