package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultNeedsDatabase(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate())

	cfg.DBHost = "localhost"
	cfg.DBUser = "scene"
	cfg.DBName = "scene"
	require.NoError(t, cfg.Validate())
	require.False(t, cfg.UploadsEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:   "memory store",
			mutate: func(c *Config) { c.Store = StoreMemory },
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.Store = StoreRedis },
			wantErr: true,
		},
		{
			name: "redis with address",
			mutate: func(c *Config) {
				c.Store = StoreRedis
				c.RedisAddr = "localhost:6379"
			},
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.Store = "sqlite" },
			wantErr: true,
		},
		{
			name: "partial minio",
			mutate: func(c *Config) {
				c.Store = StoreMemory
				c.MinioEndpoint = "localhost:9000"
			},
			wantErr: true,
		},
		{
			name: "negative margin",
			mutate: func(c *Config) {
				c.Store = StoreMemory
				c.Scene.CollisionMargin = -1
			},
			wantErr: true,
		},
		{
			name: "zero step",
			mutate: func(c *Config) {
				c.Store = StoreMemory
				c.Scene.PlacementStep = 0
			},
			wantErr: true,
		},
		{
			name: "no extensions",
			mutate: func(c *Config) {
				c.Store = StoreMemory
				c.Upload.Extensions = " , "
			},
			wantErr: true,
		},
		{
			name: "extension without dot",
			mutate: func(c *Config) {
				c.Store = StoreMemory
				c.Upload.Extensions = ".glb,zip"
			},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(&cfg)

			err := cfg.Validate()
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := Default()
	cfg.DBHost = "db"
	cfg.DBUser = "u"
	cfg.DBPassword = "p"
	cfg.DBName = "scene"

	require.Equal(t, "host=db port=5432 user=u password=p dbname=scene sslmode=disable", cfg.DSN())
}

func TestAllowedExtensions(t *testing.T) {
	u := UploadConfig{Extensions: ".glb, .ZIP,,.gltf "}
	require.Equal(t, []string{".glb", ".zip", ".gltf"}, u.AllowedExtensions())

	require.Equal(t, []string{".glb"}, Default().Upload.AllowedExtensions())
}
