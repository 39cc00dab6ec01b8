package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Port            string
	MaxConns        int
	ReadTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// DocumentConfig defines how PDFs are read.
type DocumentConfig struct {
	Backend        string // "fitz"|"pdflib"|"mutool"
	StripFurniture bool
	OCR            bool
	OCRLanguage    string
	RenderDPI      float64
	RenderMaxWidth int
	MaxConcurrent  int
}

// CacheConfig defines the Redis page-fact cache. Empty RedisURL disables it.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// SelectionConfig holds engine defaults applied when a request leaves them unset.
type SelectionConfig struct {
	ReverseRanges string // "allow"|"reject"
	SkipInvalid   bool
	SpecDir       string
}

// SourceConfig defines where documents are fetched from.
type SourceConfig struct {
	BaseDir         string
	TempDir         string
	HTTPTimeout     time.Duration
	MaxBytes        int64
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	DecryptPassword string
}

// Config is the top-level configuration.
type Config struct {
	Logging   LoggingConfig
	Axiom     AxiomConfig
	Server    ServerConfig
	Document  DocumentConfig
	Cache     CacheConfig
	Selection SelectionConfig
	Source    SourceConfig
}

// Load reads an optional .env file (or the files named) into the
// environment, then builds the configuration from it. Variables already set
// in the environment win.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return FromEnv(), nil
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pagesel.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pagesel",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:            getEnv("PORT", "8080"),
		MaxConns:        parseInt(getEnv("SERVER_MAX_CONNS", "256"), 256),
		ReadTimeout:     parseDuration(getEnv("SERVER_READ_TIMEOUT", "15s"), 15*time.Second),
		RequestTimeout:  parseDuration(getEnv("REQUEST_TIMEOUT", "120s"), 120*time.Second),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		MaxBodyBytes:    parseInt64(getEnv("SERVER_MAX_BODY_BYTES", "1048576"), 1<<20),
	}

	cfg.Document = DocumentConfig{
		Backend:        strings.ToLower(getEnv("PDF_TEXT_BACKEND", "fitz")),
		StripFurniture: parseBool(getEnv("PDF_STRIP_FURNITURE", "false")),
		OCR:            parseBool(getEnv("PDF_OCR", "false")),
		OCRLanguage:    getEnv("PDF_OCR_LANGUAGE", "eng"),
		RenderDPI:      parseFloat(getEnv("PDF_RENDER_DPI", "200"), 200),
		RenderMaxWidth: parseInt(getEnv("PDF_RENDER_MAX_WIDTH", "2480"), 2480),
		MaxConcurrent:  parseInt(getEnv("PDF_MAX_CONCURRENT", "4"), 4),
	}

	cfg.Cache = CacheConfig{
		RedisURL: getEnv("REDIS_URL", ""),
		TTL:      parseDuration(getEnv("FACT_CACHE_TTL", "24h"), 24*time.Hour),
	}

	cfg.Selection = SelectionConfig{
		ReverseRanges: strings.ToLower(getEnv("SELECTION_REVERSE_RANGES", "allow")),
		SkipInvalid:   parseBool(getEnv("SELECTION_SKIP_INVALID", "false")),
		SpecDir:       getEnv("SELECTION_SPEC_DIR", "."),
	}

	cfg.Source = SourceConfig{
		BaseDir:         getEnv("DOCUMENT_BASE_DIR", ""),
		TempDir:         getEnv("DOCUMENT_TEMP_DIR", ""),
		HTTPTimeout:     parseDuration(getEnv("DOCUMENT_HTTP_TIMEOUT", "60s"), 60*time.Second),
		MaxBytes:        parseInt64(getEnv("DOCUMENT_MAX_BYTES", "268435456"), 256<<20),
		S3Region:        getEnv("AWS_REGION", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("S3_SECRET_ACCESS_KEY", ""),
		DecryptPassword: getEnv("DOCUMENT_DECRYPT_PASSWORD", ""),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}

func parseInt64(s string, def int64) int64 {
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
