package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nusafiber/fieldops_backend/config"
	"github.com/nusafiber/fieldops_backend/models"
	"github.com/nusafiber/fieldops_backend/telegram"
	"github.com/nusafiber/fieldops_backend/workflow"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

// telegramWebhookHandler receives bot updates. Malformed or failing updates
// are still acked with 2xx: a non-2xx makes the bot platform redeliver the
// same update over and over, which is worse than dropping one message.
// The readiness gate guarantees config.GetDB() is non-nil by the time this
// handler runs.
func telegramWebhookHandler(client *telegram.Client) gin.HandlerFunc {
	secret := strings.TrimSpace(os.Getenv("WEBHOOK_SECRET_TOKEN"))

	return func(c *gin.Context) {
		logger := config.GetLogger()

		if secret != "" {
			got := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				c.Status(http.StatusUnauthorized)
				return
			}
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "server.go", "telegramWebhookHandler", "io.ReadAll", nil, err)
			c.Status(http.StatusNoContent)
			return
		}

		var update telegram.Update
		if err := json.Unmarshal(body, &update); err != nil {
			config.LogError(logger, "server.go", "telegramWebhookHandler", "Unmarshal body", string(body), err)
			// Malformed request: ack/drop to avoid infinite retries.
			c.Status(http.StatusNoContent)
			return
		}

		router := telegram.NewRouter(config.GetDB(), logger, client)
		router.HandleUpdate(c.Request.Context(), &update)
		c.Status(http.StatusOK)
	}
}

// authorizeInternal gates the /internal ops endpoints on a shared token.
func authorizeInternal(c *gin.Context) bool {
	want := strings.TrimSpace(os.Getenv("INTERNAL_API_TOKEN"))
	if want == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "internal API disabled (INTERNAL_API_TOKEN not set)"})
		return false
	}
	got := c.GetHeader("token")
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	return true
}

type stockMovementRequest struct {
	MaterialName string `json:"material_name"`
	Unit         string `json:"unit"`
	ProjectID    *int   `json:"project_id"`
	Distribution string `json:"distribution"`
	Quantity     string `json:"quantity"`
	Notes        string `json:"notes"`
}

func stockMovementHandler(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authorizeInternal(c) {
			return
		}
		logger := config.GetLogger()

		var req stockMovementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		qty, err := decimal.NewFromString(req.Quantity)
		if err != nil || !qty.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be a positive number"})
			return
		}

		input := &workflow.StockMovementInput{
			MaterialName: req.MaterialName,
			Unit:         req.Unit,
			ProjectID:    req.ProjectID,
			Distribution: req.Distribution,
			Quantity:     qty,
			Notes:        req.Notes,
		}
		db := config.GetDB()

		var mt *models.MaterialTransaction
		switch kind {
		case "in":
			mt, err = workflow.RecordStockIn(db, logger, input)
		default:
			mt, err = workflow.RecordUsage(db, logger, input)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transaction_id": mt.ID,
			"material_id":    mt.MaterialID,
			"type":           mt.TransactionType,
			"quantity":       mt.Quantity.String(),
		})
	}
}

// stockImportHandler accepts an xlsx upload and bulk-loads IN entries.
func stockImportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authorizeInternal(c) {
			return
		}
		logger := config.GetLogger()

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		result, err := workflow.ImportStockInWorkbook(config.GetDB(), logger, f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"rows_imported":     result.RowsImported,
			"materials_created": result.MaterialsCreated,
		})
	}
}

func listMaterialsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authorizeInternal(c) {
			return
		}
		materials, err := models.ListMaterials(config.GetDB(), strings.TrimSpace(c.Query("name")))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"materials": materials})
	}
}

type requirementRequest struct {
	ProjectID    int    `json:"project_id"`
	MaterialName string `json:"material_name"`
	Unit         string `json:"unit"`
	Distribution string `json:"distribution"`
	Quantity     string `json:"quantity"`
}

// upsertRequirementHandler sets the planned quantity for one
// (project, material, distribution) scope, creating the material on first
// sight. Posting the same scope again replaces the quantity.
func upsertRequirementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authorizeInternal(c) {
			return
		}
		var req requirementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.ProjectID <= 0 || strings.TrimSpace(req.MaterialName) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project_id and material_name are required"})
			return
		}
		qty, err := decimal.NewFromString(req.Quantity)
		if err != nil || qty.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be a non-negative number"})
			return
		}

		db := config.GetDB()
		material, err := models.GetOrCreateMaterial(db, strings.TrimSpace(req.MaterialName), req.Unit)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := models.UpsertRequirement(db, req.ProjectID, material.ID, req.Distribution, qty); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// A changed requirement changes the adequacy ratios.
		if err := workflow.SyncProjectProgress(db, config.GetLogger(), req.ProjectID); err != nil {
			config.LogError(config.GetLogger(), "server.go", "upsertRequirementHandler", "SyncProjectProgress", req.ProjectID, err)
		}
		c.JSON(http.StatusOK, gin.H{
			"project_id":  req.ProjectID,
			"material_id": material.ID,
			"quantity":    qty.String(),
		})
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	botClient, err := telegram.NewClientFromEnv()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "telegram"}).Panic(err.Error())
	}

	r.POST("/telegram/webhook", telegramWebhookHandler(botClient))
	// Ops tooling (token gated): manual ledger entries and bulk stock import.
	r.POST("/internal/stock/in", stockMovementHandler("in"))
	r.POST("/internal/stock/usage", stockMovementHandler("usage"))
	r.POST("/internal/stock/import", stockImportHandler())
	r.GET("/internal/materials", listMaterialsHandler())
	r.POST("/internal/requirements", upsertRequirementHandler())
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("webhook listening on http://localhost:", port, "/telegram/webhook")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
