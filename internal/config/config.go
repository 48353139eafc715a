package config

import (
	"os"
	"runtime"
	"strconv"
)

type Config struct {
	Run     RunConfig
	Log     LogConfig
	Trace   TraceConfig
	Publish PublishConfig
	Notify  NotifyConfig
	Watch   WatchConfig
}

// RunConfig locates the project and bounds catalog concurrency. MastersDir
// is resolved relative to Root unless absolute.
type RunConfig struct {
	Root        string
	MastersDir  string
	Concurrency int
}

type LogConfig struct {
	Level   string
	Console bool
}

type TraceConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

type PublishConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

type NotifyConfig struct {
	URL    string
	Secret string
}

type WatchConfig struct {
	DebounceMS int
	StatusAddr string
}

func Load() Config {
	return Config{
		Run: RunConfig{
			Root:        env("ASSETGEN_ROOT", "."),
			MastersDir:  env("ASSETGEN_MASTERS_DIR", "master-images"),
			Concurrency: envInt("ASSETGEN_CONCURRENCY", max(2, runtime.NumCPU())),
		},
		Log: LogConfig{
			Level:   env("ASSETGEN_LOG_LEVEL", "info"),
			Console: envBool("ASSETGEN_LOG_CONSOLE", false),
		},
		Trace: TraceConfig{
			Exporter:     env("ASSETGEN_TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("ASSETGEN_OTLP_ENDPOINT", "localhost:4318"),
			OTLPInsecure: envBool("ASSETGEN_OTLP_INSECURE", true),
		},
		Publish: PublishConfig{
			Enabled:   envBool("ASSETGEN_PUBLISH_ENABLED", false),
			Endpoint:  env("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: env("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: env("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    env("MINIO_BUCKET", "assetgen-assets"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
			Prefix:    env("ASSETGEN_PUBLISH_PREFIX", ""),
		},
		Notify: NotifyConfig{
			URL:    env("ASSETGEN_WEBHOOK_URL", ""),
			Secret: env("ASSETGEN_WEBHOOK_SECRET", ""),
		},
		Watch: WatchConfig{
			DebounceMS: envInt("ASSETGEN_WATCH_DEBOUNCE_MS", 500),
			StatusAddr: env("ASSETGEN_STATUS_ADDR", ":8090"),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
