package main

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"

	_ "scene-service/docs"
	"scene-service/internal/config"
	"scene-service/internal/handlers"
	"scene-service/internal/metrics"
	"scene-service/internal/models"
	"scene-service/internal/repository"
	"scene-service/internal/scene"
	"scene-service/internal/services"
	"scene-service/internal/services/cache"
	"scene-service/internal/services/caches"
	"scene-service/internal/storage"
)

const (
	assetCacheTTL      = 24 * time.Hour
	cacheCleanupPeriod = 10 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

// @title Scene Service API
// @version 1.0
// @description Places uploaded 3D models on a shared ground plane and keeps them from overlapping.
// @BasePath /api/scene
func main() {
	cfg := config.Default()

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the scene service.").
		Options(&cfg)
	cli.Load()

	logs.SetLevel(logs.ParseLevel(cfg.LogLevel))
	logs.Encoder = json.Marshal

	if err := cfg.Validate(); err != nil {
		logs.Fatal(errors.Wrap(err, "invalid configuration"))
	}

	var redisClient *storage.RedisClient
	if cfg.RedisAddr != "" {
		client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logs.Fatal(err)
		}
		defer client.Close()
		redisClient = client
	}

	store := InitStore(cfg, redisClient)
	downloads := InitAssetCache(ctx, cfg, redisClient)
	assets := InitAssetService(ctx, cfg, downloads)

	queue := services.NewWriteQueue(store, cfg.WriteTimeout)
	queueDone := make(chan struct{})
	go func() {
		queue.Run(ctx)
		close(queueDone)
	}()

	opts := scene.DefaultOptions()
	opts.CollisionMargin = cfg.Scene.CollisionMargin
	opts.Placement = scene.PlacementConfig{
		Seed:        mgl64.Vec3{cfg.Scene.SeedX, 0, cfg.Scene.SeedZ},
		StepSize:    cfg.Scene.PlacementStep,
		MaxAttempts: cfg.Scene.PlacementTries,
	}
	opts.Bounds = assets

	controller := scene.NewSceneController(store, queue, opts)
	if err := controller.Load(ctx); err != nil {
		logs.Fatal(errors.Wrap(err, "loading scene failed"))
	}
	prometheus.MustRegister(metrics.NewSceneCollector(controller))

	app := fiber.New(fiber.Config{
		BodyLimit:             int(cfg.Upload.MaxBytes) + 1<<20,
		DisableStartupMessage: true,
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := handlers.RegisterRoutes(app,
		handlers.NewSceneHandler(controller),
		handlers.NewDragHandler(controller),
		handlers.NewAssetHandler(assets, controller),
		handlers.NewCacheHandler(assets, downloads),
	)
	api.Get("/swagger/*", swagger.HandlerDefault)

	for _, r := range app.GetRoutes(true) {
		logs.WithTag("method", r.Method).
			WithTag("path", r.Path).
			Debug("route registered")
	}

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logs.Warn(errors.Wrap(err, "http shutdown failed"))
		}
	}()

	logs.WithTag("port", cfg.AppPort).
		WithTag("store", cfg.Store).
		Info("scene service started")

	if err := app.Listen(":" + cfg.AppPort); err != nil {
		logs.Error(errors.Wrap(err, "http server stopped"))
		cancel()
	}

	<-queueDone
	logs.Info("scene service stopped")
}

// InitStore opens the model store selected in the configuration.
func InitStore(cfg config.Config, redisClient *storage.RedisClient) repository.PlacedModelRepository {
	switch cfg.Store {
	case config.StoreRedis:
		return repository.NewRedisModelStore(redisClient)

	case config.StoreMemory:
		logs.Warn("memory store selected, the scene is lost on restart")
		return repository.NewMemoryModelStore()

	default:
		db, err := config.ConnectDatabase(cfg)
		if err != nil {
			logs.Fatal(err)
		}
		if err := db.AutoMigrate(&models.PlacedModel{}); err != nil {
			logs.Fatal(errors.Wrap(err, "database migration failed"))
		}
		return repository.NewPlacedModelRepository(db)
	}
}

// InitAssetCache builds the download cache: memory first, then disk and
// redis when configured.
func InitAssetCache(ctx context.Context, cfg config.Config, redisClient *storage.RedisClient) *cache.Chain {
	memory := caches.NewMemoryCache(cfg.AssetCacheSize, assetCacheTTL)
	go memory.Run(ctx, cacheCleanupPeriod)

	layers := []cache.CacheLayer{memory}
	if cfg.AssetCacheDir != "" {
		disk, err := caches.NewFileCache(cfg.AssetCacheDir, cfg.AssetCacheDiskSize, assetCacheTTL)
		if err != nil {
			logs.Fatal(err)
		}
		go disk.Run(ctx, cacheCleanupPeriod)
		layers = append(layers, disk)
	}
	if redisClient != nil {
		layers = append(layers, caches.NewRedisCache(redisClient, assetCacheTTL))
	}
	return cache.NewChain(layers...)
}

// InitAssetService stores uploads in MinIO, or in memory when MinIO is not
// configured.
func InitAssetService(ctx context.Context, cfg config.Config, downloads *cache.Chain) *services.AssetService {
	var blobs services.BlobStore
	if cfg.UploadsEnabled() {
		client, err := storage.NewMinioClient(ctx, cfg)
		if err != nil {
			logs.Fatal(errors.Wrap(err, "minio client initialization failed"))
		}
		blobs = services.NewMinioBlobStore(client, cfg.MinioBucket)
	} else {
		logs.Warn("minio is not configured, uploaded assets are kept in memory")
		blobs = services.NewMemoryBlobStore()
	}

	return services.NewAssetService(blobs, downloads, services.UploadPolicy{
		MaxBytes:          cfg.Upload.MaxBytes,
		AllowedExtensions: cfg.Upload.AllowedExtensions(),
		Convert:           cfg.Upload.Convert,
	})
}
