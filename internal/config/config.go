// Package config loads the server's typed configuration the way the
// teacher's services/config.go layers koanf providers: defaults, then a
// JSON file, then a .env file, then environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration is the complete, typed server configuration.
type Configuration struct {
	App struct {
		Name        string `koanf:"name"`
		Environment string `koanf:"environment"`
		LogLevel    string `koanf:"logLevel"`
	} `koanf:"app"`

	HTTP struct {
		Port         string `koanf:"port"`
		ReadTimeout  int    `koanf:"readTimeout"`
		WriteTimeout int    `koanf:"writeTimeout"`
		IdleTimeout  int    `koanf:"idleTimeout"`
	} `koanf:"http"`

	Db struct {
		Driver   string `koanf:"driver"` // "postgres" or "sqlite"
		Host     string `koanf:"host"`
		Port     string `koanf:"port"`
		Name     string `koanf:"name"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
		Path     string `koanf:"path"` // sqlite file path
	} `koanf:"db"`

	Auth struct {
		JWTSecret            string `koanf:"jwtSecret"`
		AccessExpiryMinutes  int    `koanf:"accessExpiryMinutes"`
		SessionLifetimeDays  int    `koanf:"sessionLifetimeDays"`
		TokenIssuer          string `koanf:"tokenIssuer"`
	} `koanf:"auth"`

	Scan struct {
		FlushIntervalMs int  `koanf:"flushIntervalMs"`
		FollowSymlinks  bool `koanf:"followSymlinks"`
	} `koanf:"scan"`

	RemoteMetadata struct {
		TimeoutSeconds    int `koanf:"timeoutSeconds"`
		MaxRequests       int `koanf:"maxRequests"` // 0 = no limiter configured
		PerSeconds        int `koanf:"perSeconds"`
		TMDBAPIKey        string `koanf:"tmdbApiKey"`
		SubsonicBaseURL   string `koanf:"subsonicBaseUrl"`
		SubsonicUser      string `koanf:"subsonicUser"`
		SubsonicPassword  string `koanf:"subsonicPassword"`
	} `koanf:"remoteMetadata"`

	Jobs struct {
		FlushIntervalMs     int `koanf:"flushIntervalMs"`
		HistoryRetentionDays int `koanf:"historyRetentionDays"`
	} `koanf:"jobs"`

	Streaming struct {
		IdleTimeoutSeconds      int `koanf:"idleTimeoutSeconds"`
		MaxConcurrentTranscodes int `koanf:"maxConcurrentTranscodes"`
		SegmentDurationSeconds  int `koanf:"segmentDurationSeconds"`
	} `koanf:"streaming"`

	Trickplay struct {
		SnapshotIntervalMs int  `koanf:"snapshotIntervalMs"`
		MaxSnapshotWidth   int  `koanf:"maxSnapshotWidth"`
		JpegQuality        int  `koanf:"jpegQuality"`
		SkipExisting       bool `koanf:"skipExisting"`
	} `koanf:"trickplay"`

	Imaging struct {
		CacheDir string `koanf:"cacheDir"`
	} `koanf:"imaging"`
}

// defaults mirrors the teacher's constants.DefaultConfig confmap.Provider seed.
var defaults = map[string]any{
	"app.name":        "nexamediaserver",
	"app.environment": "development",
	"app.logLevel":    "info",

	"http.port":         "8080",
	"http.readTimeout":  30,
	"http.writeTimeout": 30,
	"http.idleTimeout":  60,

	"db.driver": "sqlite",
	"db.path":   "./nexa.db",
	"db.port":   "5432",

	"auth.jwtSecret":           "change-me",
	"auth.accessExpiryMinutes": 15,
	"auth.sessionLifetimeDays": 30,
	"auth.tokenIssuer":         "nexamediaserver",

	"scan.flushIntervalMs": 500,
	"scan.followSymlinks":  true,

	"remoteMetadata.timeoutSeconds": 30,
	"remoteMetadata.maxRequests":    10,
	"remoteMetadata.perSeconds":     1,

	"jobs.flushIntervalMs":      500,
	"jobs.historyRetentionDays": 7,

	"streaming.idleTimeoutSeconds":      60,
	"streaming.maxConcurrentTranscodes": 2,
	"streaming.segmentDurationSeconds":  6,

	"trickplay.snapshotIntervalMs": 2000,
	"trickplay.maxSnapshotWidth":   320,
	"trickplay.jpegQuality":        85,
	"trickplay.skipExisting":       true,

	"imaging.cacheDir": "./cache/images",
}

var (
	current     *Configuration
	currentLock sync.RWMutex
)

// Load layers defaults, an optional JSON file at path, an optional .env
// file, and NEXA_-prefixed environment variables, in that order (later
// providers win), the same layering order the teacher's
// ConfigService.InitConfig uses.
func Load(path string) (*Configuration, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading default configuration: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), json.Parser()); err != nil {
				return nil, fmt.Errorf("loading configuration file %s: %w", path, err)
			}
		}
	}

	// godotenv populates os.Environ from .env so plain shell-style
	// deployments pick it up too; missing .env is not an error.
	_ = godotenv.Load()

	if _, err := os.Stat(".env"); err == nil {
		if err := k.Load(file.Provider(".env"), dotenv.Parser()); err != nil {
			return nil, fmt.Errorf("loading .env configuration: %w", err)
		}
	}

	envProvider := env.Provider("NEXA_", ".", envKeyReplacer)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment configuration: %w", err)
	}

	cfg := &Configuration{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	currentLock.Lock()
	current = cfg
	currentLock.Unlock()

	return cfg, nil
}

// Current returns the most recently Load-ed configuration singleton, per the
// process-wide server settings design note. Load must run before Current is used.
func Current() *Configuration {
	currentLock.RLock()
	defer currentLock.RUnlock()
	return current
}

// envKeyReplacer maps NEXA_HTTP_PORT -> http.port the way the teacher's
// envKeyReplacer maps SUASOR_ prefixed env vars onto dotted koanf keys.
func envKeyReplacer(s string) string {
	s = strings.TrimPrefix(s, "NEXA_")
	return strings.ToLower(strings.ReplaceAll(s, "_", "."))
}
