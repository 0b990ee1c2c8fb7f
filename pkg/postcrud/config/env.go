package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Environment variable mapping:
//
// Server:
//
//	PORT - Server port (default: "8080")
//	ENVIRONMENT - Runtime environment (default: "development")
//	LOG_LEVEL - debug, info, warn or error (default: "info")
//
// Host:
//
//	HOST_URL - Where items live (one of):
//	           - "" or "memory" - In-memory host (default)
//	           - "postgres://..." or "postgresql://..." - Postgres
//	           - "redis://..." or "rediss://..." - Redis
//	           - "badger:///path/to/dir" - Badger on disk, "badger://" in memory
//	           - "http://..." or "https://..." - Another postcrud server
//	DB_SCHEMA - Postgres schema (default: "postcrud")
//	AUTO_MIGRATE - Create Postgres tables on startup (default: true)
//	REDIS_PREFIX - Redis key prefix (default: "postcrud")
//
// Auth:
//
//	JWT_SECRET - HS256 secret for bearer JWTs
//	API_TOKEN - Static bearer token; also sent by the remote host
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}
		if v, ok := lookupEnv(prefix, "LOG_LEVEL"); ok && v != "" {
			c.LogLevel = v
		}

		if err := applyHostEnv(prefix, c); err != nil {
			return err
		}

		if v, ok := lookupEnv(prefix, "DB_SCHEMA"); ok && v != "" {
			c.DBSchema = v
		}
		if v, ok, err := parseBoolEnv(prefix, "AUTO_MIGRATE"); err != nil {
			return err
		} else if ok {
			c.AutoMigrate = v
		}
		if v, ok := lookupEnv(prefix, "REDIS_PREFIX"); ok && v != "" {
			c.RedisPrefix = v
		}

		if v, ok := lookupEnv(prefix, "JWT_SECRET"); ok {
			c.JWTSecret = v
		}
		if v, ok := lookupEnv(prefix, "API_TOKEN"); ok {
			c.APIToken = v
		}

		return nil
	}
}

// applyHostEnv auto-detects the host type from HOST_URL
func applyHostEnv(prefix string, c *ServerConfig) error {
	hostURL, hasURL := lookupEnv(prefix, "HOST_URL")
	if !hasURL {
		return nil
	}
	return applyHostURL(hostURL, c)
}

func applyHostURL(hostURL string, c *ServerConfig) error {
	switch {
	case hostURL == "" || hostURL == "memory" || hostURL == "memory://":
		c.HostType = HostMemory
		c.HostURL = ""
	case strings.HasPrefix(hostURL, "postgres://"), strings.HasPrefix(hostURL, "postgresql://"):
		c.HostType = HostPostgres
		c.HostURL = hostURL
	case strings.HasPrefix(hostURL, "redis://"), strings.HasPrefix(hostURL, "rediss://"):
		c.HostType = HostRedis
		c.HostURL = hostURL
	case strings.HasPrefix(hostURL, "badger://"):
		c.HostType = HostBadger
		c.HostURL = hostURL
		c.BadgerDir = strings.TrimPrefix(hostURL, "badger://")
	case strings.HasPrefix(hostURL, "http://"), strings.HasPrefix(hostURL, "https://"):
		c.HostType = HostRemote
		c.HostURL = hostURL
	default:
		return fmt.Errorf("unsupported HOST_URL format: %s (use 'memory', 'postgres://...', 'redis://...', 'badger://...' or 'http(s)://...')", hostURL)
	}
	return nil
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}

func parseBoolEnv(prefix, key string) (bool, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid boolean for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}
