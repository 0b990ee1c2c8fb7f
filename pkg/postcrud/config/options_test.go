package config

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/postcrud/pkg/postcrud"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got: %s", cfg.Port)
	}
	if cfg.HostType != HostMemory {
		t.Errorf("expected memory host, got: %s", cfg.HostType)
	}
	if !cfg.AutoMigrate {
		t.Error("expected auto migrate by default")
	}
}

func TestWithPort(t *testing.T) {
	cfg, err := Load(WithPort("9090"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got: %s", cfg.Port)
	}
}

func TestWithPortEmpty(t *testing.T) {
	_, err := Load(WithPort(""))
	if err == nil {
		t.Error("expected error for empty port, got nil")
	}
}

func TestWithEnvironment(t *testing.T) {
	cfg, err := Load(WithEnvironment("production"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected environment production, got: %s", cfg.Environment)
	}
}

func TestHostOptions(t *testing.T) {
	tests := []struct {
		name      string
		opt       Option
		wantType  string
		wantError bool
	}{
		{"memory", WithMemoryHost(), HostMemory, false},
		{"postgres valid", WithPostgresHost("postgresql://localhost/test", "cms"), HostPostgres, false},
		{"postgres missing url", WithPostgresHost("", "cms"), "", true},
		{"redis valid", WithRedisHost("redis://localhost:6379", ""), HostRedis, false},
		{"redis missing url", WithRedisHost("", ""), "", true},
		{"badger", WithBadgerHost(""), HostBadger, false},
		{"remote valid", WithRemoteHost("http://localhost:8080"), HostRemote, false},
		{"remote missing url", WithRemoteHost(""), "", true},
		{"url detection", WithHostURL("redis://localhost"), HostRedis, false},
		{"url unsupported", WithHostURL("ftp://x"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.opt)
			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.HostType != tt.wantType {
				t.Errorf("expected host type %q, got %q", tt.wantType, cfg.HostType)
			}
		})
	}
}

func TestValidateRejectsUnknownHostType(t *testing.T) {
	cfg := defaults()
	cfg.HostType = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown host type")
	}
}

func TestWithLogLevel(t *testing.T) {
	cfg, err := Load(WithLogLevel("warn"))
	require.NoError(t, err)
	logger := cfg.NewLogger()
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))

	_, err = Load(WithLogLevel("chatty"))
	assert.Error(t, err)
}

func TestBuildHost(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		opts []Option
	}{
		{"memory", []Option{WithMemoryHost()}},
		{"badger in memory", []Option{WithBadgerHost("")}},
		{"badger on disk", []Option{WithBadgerHost(t.TempDir())}},
		{"redis", []Option{WithRedisHost("redis://"+mr.Addr(), "cfgtest")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.opts...)
			require.NoError(t, err)

			ctx := context.Background()
			host, closeHost, err := cfg.BuildHost(ctx)
			require.NoError(t, err)
			defer func() { assert.NoError(t, closeHost()) }()

			item := postcrud.NewPage(host)
			item.SetTitle("Built")
			require.NoError(t, item.Save(ctx))

			loaded, err := postcrud.LoadPage(ctx, host, item.ID())
			require.NoError(t, err)
			assert.Equal(t, "Built", loaded.Title())
		})
	}

	t.Run("remote", func(t *testing.T) {
		cfg, err := Load(WithRemoteHost("http://127.0.0.1:1"), WithAPIToken("tok"))
		require.NoError(t, err)
		host, closeHost, err := cfg.BuildHost(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, host)
		assert.NoError(t, closeHost())
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg, err := Load(WithRedisHost("redis://127.0.0.1:1", ""))
		require.NoError(t, err)
		_, _, err = cfg.BuildHost(context.Background())
		assert.Error(t, err)
	})
}
