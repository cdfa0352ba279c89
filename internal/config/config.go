package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

var _ = reflect.TypeOf(Config{})

// Config holds every setting of the scene service. Values come from command
// line flags or the environment variable named in the env tag.
type Config struct {
	AppPort  string `cli:""        env:"SCENE_PORT"      help:"HTTP listening port."`
	LogLevel string `cli:""        env:"SCENE_LOG_LEVEL" help:"Log level (debug|info|warning|error)."`
	Store    string `cli:""        env:"SCENE_STORE"     help:"Model store backend (postgres|redis|memory)."`

	DBHost     string `cli:",hidden" env:"DB_HOST"     help:"PostgreSQL host."`
	DBPort     string `cli:",hidden" env:"DB_PORT"     help:"PostgreSQL port."`
	DBUser     string `cli:",hidden" env:"DB_USER"     help:"PostgreSQL user."`
	DBPassword string `cli:",hidden" env:"DB_PASSWORD" help:"PostgreSQL password."`
	DBName     string `cli:",hidden" env:"DB_NAME"     help:"PostgreSQL database."`

	RedisAddr     string `cli:",hidden" env:"REDIS_ADDR"     help:"Redis address used by the redis store."`
	RedisPassword string `cli:",hidden" env:"REDIS_PASSWORD" help:"Redis password."`
	RedisDB       int    `cli:",hidden" env:"REDIS_DB"       help:"Redis database number."`

	MinioEndpoint  string `cli:",hidden" env:"MINIO_ENDPOINT"   help:"MinIO endpoint for uploaded assets. Uploads are disabled when empty."`
	MinioAccessKey string `cli:",hidden" env:"MINIO_ACCESS_KEY" help:"MinIO access key."`
	MinioSecretKey string `cli:",hidden" env:"MINIO_SECRET_KEY" help:"MinIO secret key."`
	MinioBucket    string `cli:",hidden" env:"MINIO_BUCKET"     help:"MinIO bucket holding uploaded assets."`
	MinioSSL       bool   `cli:",hidden" env:"MINIO_SSL"        help:"Use TLS to reach MinIO."`

	Scene  SceneConfig  `cli:",hidden" env:"-" help:"Placement and collision settings."`
	Upload UploadConfig `cli:",hidden" env:"-" help:"Upload settings."`

	WriteTimeout       time.Duration `cli:",hidden" env:"SCENE_WRITE_TIMEOUT"         help:"Timeout of a single store write."`
	AssetCacheSize     int64         `cli:",hidden" env:"SCENE_ASSET_CACHE_SIZE"      help:"Bytes of downloaded assets kept in memory."`
	AssetCacheDir      string        `cli:",hidden" env:"SCENE_ASSET_CACHE_DIR"       help:"Directory caching downloaded assets on disk. Disabled when empty."`
	AssetCacheDiskSize int64         `cli:",hidden" env:"SCENE_ASSET_CACHE_DISK_SIZE" help:"Bytes of downloaded assets kept on disk."`
}

// SceneConfig tunes the placement finder and the collision checks.
type SceneConfig struct {
	CollisionMargin float64 `cli:",hidden" env:"SCENE_COLLISION_MARGIN" help:"Distance every collision box is grown by."`
	PlacementStep   float64 `cli:",hidden" env:"SCENE_PLACEMENT_STEP"   help:"Minimum horizontal distance between a new model and existing ones."`
	PlacementTries  int     `cli:",hidden" env:"SCENE_PLACEMENT_TRIES"  help:"Spiral attempts before a placement falls back."`
	SeedX           float64 `cli:",hidden" env:"SCENE_SEED_X"           help:"X of the first placement candidate."`
	SeedZ           float64 `cli:",hidden" env:"SCENE_SEED_Z"           help:"Z of the first placement candidate."`
}

// UploadConfig bounds what the upload endpoint accepts.
type UploadConfig struct {
	MaxBytes   int64  `cli:",hidden" env:"SCENE_UPLOAD_MAX_BYTES"  help:"Largest accepted upload."`
	Extensions string `cli:",hidden" env:"SCENE_UPLOAD_EXTENSIONS" help:"Comma separated accepted file extensions, e.g. .glb,.zip."`
	Convert    bool   `cli:",hidden" env:"SCENE_UPLOAD_CONVERT"    help:"Accept archives and non-GLB formats, converted with assimp."`
}

// AllowedExtensions splits Extensions into its lower-cased entries.
func (u UploadConfig) AllowedExtensions() []string {
	var exts []string
	for _, ext := range strings.Split(u.Extensions, ",") {
		if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		AppPort:  "8080",
		LogLevel: logs.InfoLevel.String(),
		Store:    StorePostgres,
		DBPort:   "5432",
		RedisDB:  0,
		Scene: SceneConfig{
			CollisionMargin: 0.5,
			PlacementStep:   2,
			PlacementTries:  50,
			SeedX:           5,
			SeedZ:           -5,
		},
		Upload: UploadConfig{
			MaxBytes:          10 << 20,
			Extensions: ".glb",
		},
		WriteTimeout:       5 * time.Second,
		AssetCacheSize:     64 << 20,
		AssetCacheDiskSize: 1 << 30,
	}
}

// Validate checks that the settings needed by the chosen backends are set.
func (c Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("database configuration is incomplete")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("redis address is required by the redis store")
		}
	case StoreMemory:
	default:
		return errors.Errorf("unknown store backend %q", c.Store)
	}

	if c.MinioEndpoint != "" && (c.MinioAccessKey == "" || c.MinioSecretKey == "" || c.MinioBucket == "") {
		return errors.New("minio configuration is incomplete")
	}

	if c.Scene.CollisionMargin < 0 {
		return errors.New("collision margin must not be negative")
	}
	if c.Scene.PlacementStep <= 0 {
		return errors.New("placement step must be positive")
	}
	if c.Scene.PlacementTries <= 0 {
		return errors.New("placement tries must be positive")
	}
	if c.AssetCacheDir != "" && c.AssetCacheDiskSize <= 0 {
		return errors.New("disk cache size must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload size limit must be positive")
	}
	exts := c.Upload.AllowedExtensions()
	if len(exts) == 0 {
		return errors.New("at least one upload extension must be allowed")
	}
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			return errors.Errorf("upload extension %q must start with a dot", ext)
		}
	}
	return nil
}

// UploadsEnabled reports whether an asset store is configured.
func (c Config) UploadsEnabled() bool {
	return c.MinioEndpoint != ""
}

// DSN returns the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// ConnectDatabase initializes a GORM database connection to PostgreSQL.
func ConnectDatabase(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "connecting to postgres failed")
	}
	return db, nil
}
