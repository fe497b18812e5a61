package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName         string
	AppEnv          string
	Port            string
	ShutdownTimeout time.Duration

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret      string
	JWTExpiry      time.Duration
	AuthRateLimit  int64 // Auth requests per client IP per window
	AuthRateWindow time.Duration
	UserCacheTTL   time.Duration // How long an authenticated user lookup is reused

	// Observability (optional)
	SentryDSN string

	// Storage: "s3", "minio" or "local"
	StorageDriver string

	// Storage - S3-compatible (AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services
	S3PresignExpiry time.Duration // Expiry for signed playback and processing URLs

	// Storage - MinIO (native client)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Storage - local filesystem (development)
	LocalStoragePath string

	// Uploads
	UploadMaxBytes int64

	// Transcription and summarization: "openai" or "cloudflare"
	TranscribeProvider     string
	OpenAIAPIKey           string
	OpenAIBaseURL          string // Optional: OpenAI-compatible gateways
	OpenAITranscribeModel  string
	OpenAISummaryModel     string
	CloudflareAccountID    string
	CloudflareAPIToken     string
	CloudflareWhisperModel string

	// Background processing
	ProcessingCallTimeout   time.Duration // Per external call (blob read, transcription, summarization)
	ProcessingConcurrency   int64
	ProcessingStaleAfter    time.Duration
	ProcessingSweepSchedule string

	// Device-local library used by the CLI
	LocalLibraryPath string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:         envString("APP_NAME", "Voice Memo"),
		AppEnv:          envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:            envString("PORT", "8090"),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/voicememo.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Security
		JWTSecret:      envRequired("JWT_SECRET"),
		JWTExpiry:      envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days
		AuthRateLimit:  envInt64("AUTH_RATE_LIMIT", 5),
		AuthRateWindow: envDuration("AUTH_RATE_WINDOW", 15*time.Minute),
		UserCacheTTL:   envDuration("USER_CACHE_TTL", 30*time.Second),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		StorageDriver:    envString("STORAGE_DRIVER", "s3"),
		S3Region:         envString("S3_REGION", ""),
		S3Bucket:         envString("S3_BUCKET", ""),
		S3AccessKey:      envString("S3_ACCESS_KEY", ""),
		S3SecretKey:      envString("S3_SECRET_KEY", ""),
		S3Endpoint:       envString("S3_ENDPOINT", ""),
		S3PresignExpiry:  envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),
		MinioEndpoint:    envString("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:   envString("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:   envString("MINIO_SECRET_KEY", ""),
		MinioBucket:      envString("MINIO_BUCKET", "recordings"),
		MinioUseSSL:      envBool("MINIO_USE_SSL", false),
		LocalStoragePath: envString("LOCAL_STORAGE_PATH", "./data/blobs"),

		// Uploads
		UploadMaxBytes: envInt64("UPLOAD_MAX_BYTES", 25<<20), // 25 MiB

		// Transcription and summarization
		TranscribeProvider:     envString("TRANSCRIBE_PROVIDER", "openai"),
		OpenAIAPIKey:           envString("OPENAI_API_KEY", ""),
		OpenAIBaseURL:          envString("OPENAI_BASE_URL", ""),
		OpenAITranscribeModel:  envString("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
		OpenAISummaryModel:     envString("OPENAI_SUMMARY_MODEL", "gpt-4o-mini"),
		CloudflareAccountID:    envString("CLOUDFLARE_ACCOUNT_ID", ""),
		CloudflareAPIToken:     envString("CLOUDFLARE_API_TOKEN", ""),
		CloudflareWhisperModel: envString("CLOUDFLARE_WHISPER_MODEL", "@cf/openai/whisper"),

		// Background processing
		ProcessingCallTimeout:   envDuration("PROCESSING_CALL_TIMEOUT", 5*time.Minute),
		ProcessingConcurrency:   envInt64("PROCESSING_CONCURRENCY", 4),
		ProcessingStaleAfter:    envDuration("PROCESSING_STALE_AFTER", 30*time.Minute),
		ProcessingSweepSchedule: envString("PROCESSING_SWEEP_SCHEDULE", "@every 5m"),

		// Local library
		LocalLibraryPath: envString("LOCAL_LIBRARY_PATH", "./data/library.json"),
	}

	if cfg.StorageDriver == "s3" {
		cfg.S3Region = envRequired("S3_REGION")
		cfg.S3Bucket = envRequired("S3_BUCKET")
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures the processing pipeline can actually run.
// Development boots without credentials; jobs then end as failed.
func validateProduction(cfg *Config) {
	switch cfg.TranscribeProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			slog.Error("production deployment requires OPENAI_API_KEY",
				"hint", "set APP_ENV=development to boot without transcription credentials")
			os.Exit(1)
		}
	case "cloudflare":
		if cfg.CloudflareAccountID == "" || cfg.CloudflareAPIToken == "" || cfg.OpenAIAPIKey == "" {
			slog.Error("production deployment requires CLOUDFLARE_ACCOUNT_ID, CLOUDFLARE_API_TOKEN and OPENAI_API_KEY",
				"hint", "cloudflare transcribes, summaries still go through OpenAI")
			os.Exit(1)
		}
	}

	if cfg.StorageDriver == "local" {
		slog.Error("production deployment requires a remote blob store",
			"hint", "set STORAGE_DRIVER=s3 or STORAGE_DRIVER=minio")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("config invalid integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets and credentials are excluded. Safe to log.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:                 c.AppName,
		AppEnv:                  c.AppEnv,
		Port:                    c.Port,
		DBDriver:                c.DBDriver,
		StorageDriver:           c.StorageDriver,
		S3Region:                c.S3Region,
		S3Bucket:                c.S3Bucket,
		S3Endpoint:              c.S3Endpoint,
		MinioEndpoint:           c.MinioEndpoint,
		MinioBucket:             c.MinioBucket,
		UploadMaxBytes:          c.UploadMaxBytes,
		TranscribeProvider:      c.TranscribeProvider,
		OpenAITranscribeModel:   c.OpenAITranscribeModel,
		OpenAISummaryModel:      c.OpenAISummaryModel,
		ProcessingCallTimeout:   c.ProcessingCallTimeout,
		ProcessingConcurrency:   c.ProcessingConcurrency,
		ProcessingStaleAfter:    c.ProcessingStaleAfter,
		ProcessingSweepSchedule: c.ProcessingSweepSchedule,
	}
}
