package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds environment driven configuration values. The conversion core
// consumes these as injected settings; nothing below is hard-coded at the call
// sites.
type AppConfig struct {
	AppPort        string
	AllowedOrigins []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Upload and rate limits
	MaxUploadMB        int
	RateLimitMax       int
	RateLimitWindowSec int
	// Scratch storage
	ScratchDir       string
	RetentionMinutes int
	SweepIntervalSec int
	// Conversion engines
	EngineTimeoutSec int
	WorkerCount      int
	QueueSize        int
	// Default region for parsing phone numbers without a country prefix
	PhoneRegion string
	// Redis for shared rate-limit state (optional)
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// MaxUploadBytes returns the upload cap in bytes.
func (c AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// RateLimitWindow returns the sliding window length.
func (c AppConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

// RetentionTTL returns how long scratch files are kept.
func (c AppConfig) RetentionTTL() time.Duration {
	return time.Duration(c.RetentionMinutes) * time.Minute
}

// SweepInterval returns how often the scratch sweeper runs.
func (c AppConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

// EngineTimeout returns the wall-clock ceiling for one external engine run.
func (c AppConfig) EngineTimeout() time.Duration {
	return time.Duration(c.EngineTimeoutSec) * time.Second
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	dec := json.NewDecoder(f)
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			case json.Number:
				i, _ := t.Int64()
				return int(i)
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		if v := getString(app, "GinMode"); v != "" {
			out.GinMode = v
		}
		if v := getString(app, "GinPath"); v != "" {
			out.GinPath = v
		}
	}

	if lim, ok := raw["limits"].(map[string]any); ok {
		if v := getInt(lim, "MaxUploadMB"); v != 0 {
			out.MaxUploadMB = v
		}
		if v := getInt(lim, "RateLimitMax"); v != 0 {
			out.RateLimitMax = v
		}
		if v := getInt(lim, "RateLimitWindowSec"); v != 0 {
			out.RateLimitWindowSec = v
		}
	}

	if st, ok := raw["storage"].(map[string]any); ok {
		if v := getString(st, "ScratchDir"); v != "" {
			out.ScratchDir = v
		}
		if v := getInt(st, "RetentionMinutes"); v != 0 {
			out.RetentionMinutes = v
		}
		if v := getInt(st, "SweepIntervalSec"); v != 0 {
			out.SweepIntervalSec = v
		}
	}

	if eng, ok := raw["engines"].(map[string]any); ok {
		if v := getInt(eng, "TimeoutSec"); v != 0 {
			out.EngineTimeoutSec = v
		}
		if v := getInt(eng, "WorkerCount"); v != 0 {
			out.WorkerCount = v
		}
		if v := getInt(eng, "QueueSize"); v != 0 {
			out.QueueSize = v
		}
		if v := getString(eng, "PhoneRegion"); v != "" {
			out.PhoneRegion = v
		}
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisEnabled = getBool(rds, "Enabled")
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	// Flat keys kept for backward compatibility with early config files.
	if v, ok := raw["AppPort"]; ok && out.AppPort == "" {
		out.AppPort, _ = v.(string)
	}
	if v, ok := raw["ScratchDir"]; ok && out.ScratchDir == "" {
		out.ScratchDir, _ = v.(string)
	}
	if v, ok := raw["MaxUploadMB"]; ok && out.MaxUploadMB == 0 {
		if f, ok := v.(float64); ok {
			out.MaxUploadMB = int(f)
		}
	}
	if v, ok := raw["RateLimitMax"]; ok && out.RateLimitMax == 0 {
		if f, ok := v.(float64); ok {
			out.RateLimitMax = int(f)
		}
	}
	if v, ok := raw["RateLimitWindowSec"]; ok && out.RateLimitWindowSec == 0 {
		if f, ok := v.(float64); ok {
			out.RateLimitWindowSec = int(f)
		}
	}
	if v, ok := raw["AllowedOrigins"]; ok && len(out.AllowedOrigins) == 0 {
		if arr, ok := v.([]any); ok {
			for _, it := range arr {
				if s, ok := it.(string); ok {
					out.AllowedOrigins = append(out.AllowedOrigins, s)
				}
			}
		}
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 50
	}
	if c.RateLimitMax == 0 {
		c.RateLimitMax = 30
	}
	if c.RateLimitWindowSec == 0 {
		c.RateLimitWindowSec = 600
	}
	if c.ScratchDir == "" {
		c.ScratchDir = filepath.Join(os.TempDir(), "convgate")
	}
	if c.RetentionMinutes == 0 {
		c.RetentionMinutes = 20
	}
	if c.SweepIntervalSec == 0 {
		c.SweepIntervalSec = 60
	}
	if c.EngineTimeoutSec == 0 {
		c.EngineTimeoutSec = 180
	}
	if c.WorkerCount == 0 {
		c.WorkerCount = runtime.NumCPU()
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
	if c.PhoneRegion == "" {
		c.PhoneRegion = "US"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_LOG_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		parts := strings.Split(v, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				list = append(list, s)
			}
		}
		if len(list) > 0 {
			c.AllowedOrigins = list
		}
	}
	if v := getEnv("MAX_UPLOAD_MB", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxUploadMB = n
		}
	}
	if v := getEnv("RATE_LIMIT_MAX", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateLimitMax = n
		}
	}
	if v := getEnv("RATE_LIMIT_WINDOW_SEC", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateLimitWindowSec = n
		}
	}
	if v := getEnv("SCRATCH_DIR", ""); v != "" {
		c.ScratchDir = v
	}
	if v := getEnv("RETENTION_MINUTES", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RetentionMinutes = n
		}
	}
	if v := getEnv("SWEEP_INTERVAL_SEC", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SweepIntervalSec = n
		}
	}
	if v := getEnv("ENGINE_TIMEOUT_SEC", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.EngineTimeoutSec = n
		}
	}
	if v := getEnv("WORKER_COUNT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.WorkerCount = n
		}
	}
	if v := getEnv("QUEUE_SIZE", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.QueueSize = n
		}
	}
	if v := getEnv("PHONE_REGION", ""); v != "" {
		c.PhoneRegion = v
	}
	if v := getEnv("REDIS_ENABLED", ""); v != "" {
		c.RedisEnabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisPort = n
		}
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
}
