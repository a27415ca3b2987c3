package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/video-agent-api/api"
	"github.com/sahilchouksey/video-agent-api/config"
	"github.com/sahilchouksey/video-agent-api/database"
	"github.com/sahilchouksey/video-agent-api/router"
	"github.com/sahilchouksey/video-agent-api/services"
	"github.com/sahilchouksey/video-agent-api/services/agent"
	"github.com/sahilchouksey/video-agent-api/services/brand"
	"github.com/sahilchouksey/video-agent-api/services/cron"
	"github.com/sahilchouksey/video-agent-api/services/reconciler"
	"github.com/sahilchouksey/video-agent-api/services/storage"
	"github.com/sahilchouksey/video-agent-api/services/store"
	"github.com/sahilchouksey/video-agent-api/services/turnlock"
	"github.com/sahilchouksey/video-agent-api/services/videogen"
	"github.com/sahilchouksey/video-agent-api/utils/auth"
	"github.com/sahilchouksey/video-agent-api/utils/cache"
	"github.com/sahilchouksey/video-agent-api/utils/middleware"
)

func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	repo, jobLogs, closeDB, err := setupRepository(env)
	if err != nil {
		return err
	}
	defer closeDB()

	sessionCache, turns := setupRedis(env)
	sessionStore := store.NewStore(repo, sessionCache)

	uploader, uploadDir, err := setupStorage(env)
	if err != nil {
		return err
	}

	video := videogen.NewClient(videogen.Config{
		BaseURL:       env.VIDEO_API_URL,
		APIKey:        env.VIDEO_API_KEY,
		Uploader:      uploader,
		MaxVideoBytes: int64(env.VIDEO_MAX_MIRROR_MB) << 20,
	})
	if !video.Configured() {
		log.Println("[VideoGen] VIDEO_API_URL not set; generation tools are disabled")
	}

	chatService := services.NewChatService(
		sessionStore,
		setupRunner(env, video),
		reconciler.New(reconciler.Config{GenerationTools: env.GENERATION_TOOLS}),
	)

	var cronManager *cron.CronManager
	if env.CRON_ENABLED {
		cronManager = cron.NewCronManager(chatService, jobLogs, cron.Config{
			CleanupSchedule: env.SESSION_CLEANUP_SCHEDULE,
			SessionTimeout:  time.Duration(env.SESSION_TIMEOUT_HOURS) * time.Hour,
		})
		if err := cronManager.Start(); err != nil {
			// the API still serves without the sweep
			log.Printf("[CRON] failed to start cron jobs: %v", err)
			cronManager = nil
		}
	}
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
	}()

	var jwtManager *auth.JWTManager
	if env.JWT_SECRET != "" {
		jwtManager = auth.NewJWTManager(auth.JWTConfig{Secret: env.JWT_SECRET, Issuer: "video-agent-api"})
	}

	maxUpload := int64(env.MAX_UPLOAD_SIZE_MB) * 1024 * 1024
	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT), int(maxUpload)+1024*1024)
	app := server.GetEngine()

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: env.RATE_LIMIT_REQUESTS,
		RateLimitWindow:   time.Duration(env.RATE_LIMIT_WINDOW) * time.Second,
	})

	router.SetupRoutes(app, router.Dependencies{
		Store:       sessionStore,
		ChatService: chatService,
		Brand: brand.NewService(uploader, brand.Config{
			MaxUploadBytes:    maxUpload,
			MaxImageDimension: env.MAX_IMAGE_DIMENSION,
			MaxDocumentPages:  env.MAX_DOCUMENT_PAGES,
		}),
		TurnLock:   turns,
		JWTManager: jwtManager,
		UploadDir:  uploadDir,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down API server...")
		if err := server.Shutdown(); err != nil {
			log.Printf("Shutdown failed: %v", err)
		}
	}()

	return server.Run()
}

// setupRepository opens postgres unless STORE_BACKEND=memory
func setupRepository(env *config.EnvironmentVariable) (store.Repository, cron.JobLogger, func(), error) {
	if env.STORE_BACKEND == "memory" {
		log.Println("[Store] using in-process session repository")
		return store.NewMemoryRepository(), cron.NewMemoryJobLogger(), func() {}, nil
	}

	db, err := database.StartGORM(env)
	if err != nil {
		log.Println("Check whether Postgres is running, or set STORE_BACKEND=memory")
		return nil, nil, nil, err
	}
	if err := db.Init(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}
	return store.NewGormRepository(db.DB()), cron.NewGormJobLogger(db.DB()), closeDB, nil
}

// setupRedis shares cached sessions and turn locks through redis when
// REDIS_URL is set. Nil results fall back to in-process implementations.
func setupRedis(env *config.EnvironmentVariable) (store.Cache, turnlock.Lock) {
	if env.REDIS_URL == "" {
		return nil, nil
	}
	redisCache, err := cache.NewRedisCache(env.REDIS_URL, "video-agent")
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Using in-process session cache.", err)
		return nil, nil
	}
	ttl := time.Duration(env.SESSION_CACHE_TTL_MINUTES) * time.Minute
	return store.NewRedisCache(redisCache, ttl), turnlock.NewRedisLock(redisCache, turnlock.DefaultTTL)
}

// setupStorage prefers Spaces and falls back to files under UPLOAD_DIR.
// The returned directory is non-empty only for local storage.
func setupStorage(env *config.EnvironmentVariable) (storage.Uploader, string, error) {
	spacesCfg := storage.SpacesConfig{
		AccessKey: env.SPACES_ACCESS_KEY,
		SecretKey: env.SPACES_SECRET_KEY,
		Bucket:    env.SPACES_BUCKET,
		Region:    env.SPACES_REGION,
		Endpoint:  env.SPACES_ENDPOINT,
		CDNURL:    env.SPACES_CDN_URL,
	}
	if spacesCfg.Enabled() {
		client, err := storage.NewSpacesClient(spacesCfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create spaces client: %w", err)
		}
		log.Printf("[Spaces] storing uploads in bucket %s", env.SPACES_BUCKET)
		return client, "", nil
	}

	if err := os.MkdirAll(env.UPLOAD_DIR, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	log.Printf("[Spaces] not configured; storing uploads under %s", env.UPLOAD_DIR)
	return storage.NewLocalStorage(env.UPLOAD_DIR, "/uploads"), env.UPLOAD_DIR, nil
}

// setupRunner connects the agent to a model, or explains how to when no key is set
func setupRunner(env *config.EnvironmentVariable, video *videogen.Client) agent.Runner {
	if env.LLM_API_KEY == "" {
		log.Println("[Agent] LLM_API_KEY not set; chat replies with setup instructions")
		return agent.NewOfflineRunner()
	}
	cfg := agent.OpenAIConfig{
		APIKey:  env.LLM_API_KEY,
		BaseURL: env.LLM_BASE_URL,
		Model:   env.LLM_MODEL,
	}
	tools := agent.NewToolsRegistry(video).WithWriter(agent.NewOpenAIWriter(cfg))
	return agent.NewOpenAIRunner(cfg, tools)
}
