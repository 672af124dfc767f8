package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Configuration keys shared by flags, environment (PAGESHOT_*) and config files.
const (
	KeyDPI                = "dpi"
	KeyFormat             = "format"
	KeyMaxWidth           = "max-width"
	KeyMaxHeight          = "max-height"
	KeyNoAspectRatio      = "no-aspect-ratio"
	KeyJPEGQuality        = "jpeg-quality"
	KeyJobs               = "jobs"
	KeyPageLimit          = "page-limit"
	KeyPageLimitScope     = "page-limit-scope"
	KeyRenderer           = "renderer"
	KeyPassword           = "password"
	KeyHistoryDB          = "history-db"
	KeyDatabaseType       = "database-type"
	KeyStatusAddr         = "status-addr"
	KeyEvery              = "every"
	KeyVerbose            = "verbose"
	KeyQuiet              = "quiet"
	KeyDryRun             = "dry-run"
	EnvPrefix             = "PAGESHOT"
	defaultDPI            = 300.0
	defaultFormat         = "png"
	defaultJPEGQuality    = 95
	defaultRenderer       = "pdfium"
	defaultDatabaseType   = "sqlite"
	defaultPageLimitScope = "document"
)

// Page limiter scopes
const (
	ScopeDocument = "document"
	ScopeRun      = "run"
)

// Config contains all of the settings for one pageshot invocation
type Config struct {
	InputDir            string
	OutputDir           string
	DPI                 float64
	Format              string
	MaxWidth            int
	MaxHeight           int
	PreserveAspectRatio bool
	JPEGQuality         int
	Jobs                int // 0 means detect
	PageLimit           int // 0 means clamp(cores, 2, 8)
	PageLimitScope      string
	Renderer            string
	Password            string `json:"-"`
	HistoryDB           string // sqlite path or postgres DSN, empty disables history
	DatabaseType        string
	StatusAddr          string
	Every               time.Duration
	Verbose             bool
	Quiet               bool
	DryRun              bool
}

// LoadEnvFiles loads .env files into the environment (silently ignore if they don't exist)
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("pageshot.env")
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDPI, defaultDPI)
	v.SetDefault(KeyFormat, defaultFormat)
	v.SetDefault(KeyMaxWidth, 0)
	v.SetDefault(KeyMaxHeight, 0)
	v.SetDefault(KeyNoAspectRatio, false)
	v.SetDefault(KeyJPEGQuality, defaultJPEGQuality)
	v.SetDefault(KeyJobs, 0)
	v.SetDefault(KeyPageLimit, 0)
	v.SetDefault(KeyPageLimitScope, defaultPageLimitScope)
	v.SetDefault(KeyRenderer, defaultRenderer)
	v.SetDefault(KeyPassword, "")
	v.SetDefault(KeyHistoryDB, "")
	v.SetDefault(KeyDatabaseType, defaultDatabaseType)
	v.SetDefault(KeyStatusAddr, "")
	v.SetDefault(KeyEvery, "")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyQuiet, false)
	v.SetDefault(KeyDryRun, false)
}

// NewViper returns a viper instance wired to the PAGESHOT_ environment and, when
// cfgFile is set, to that config file.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file %s: %w", cfgFile, err)
		}
	}
	return v, nil
}

// Load builds a Config from v. Input and output directories come from the command line.
func Load(v *viper.Viper, inputDir, outputDir string) (Config, error) {
	cfg := Config{
		InputDir:            inputDir,
		OutputDir:           outputDir,
		DPI:                 v.GetFloat64(KeyDPI),
		Format:              strings.ToLower(v.GetString(KeyFormat)),
		MaxWidth:            v.GetInt(KeyMaxWidth),
		MaxHeight:           v.GetInt(KeyMaxHeight),
		PreserveAspectRatio: !v.GetBool(KeyNoAspectRatio),
		JPEGQuality:         v.GetInt(KeyJPEGQuality),
		Jobs:                v.GetInt(KeyJobs),
		PageLimit:           v.GetInt(KeyPageLimit),
		PageLimitScope:      strings.ToLower(v.GetString(KeyPageLimitScope)),
		Renderer:            strings.ToLower(v.GetString(KeyRenderer)),
		Password:            v.GetString(KeyPassword),
		HistoryDB:           v.GetString(KeyHistoryDB),
		DatabaseType:        strings.ToLower(v.GetString(KeyDatabaseType)),
		StatusAddr:          v.GetString(KeyStatusAddr),
		Verbose:             v.GetBool(KeyVerbose),
		Quiet:               v.GetBool(KeyQuiet),
		DryRun:              v.GetBool(KeyDryRun),
	}

	if every := v.GetString(KeyEvery); every != "" {
		d, err := time.ParseDuration(every)
		if err != nil {
			return cfg, fmt.Errorf("invalid --every interval %q: %w", every, err)
		}
		cfg.Every = d
	}

	if cfg.HistoryDB != "" && cfg.HistoryDB != ":memory:" && cfg.DatabaseType == "sqlite" {
		abs, err := filepath.Abs(filepath.ToSlash(cfg.HistoryDB))
		if err != nil {
			Logger.Error("Failed creating absolute path for history database", "error", err)
		} else {
			cfg.HistoryDB = abs
		}
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings no run could honour
func (c Config) Validate() error {
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %v", c.DPI)
	}
	if c.MaxWidth < 0 || c.MaxHeight < 0 {
		return fmt.Errorf("max width/height must not be negative")
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.PageLimit < 0 {
		return fmt.Errorf("page limit must not be negative, got %d", c.PageLimit)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	switch c.PageLimitScope {
	case ScopeDocument, ScopeRun:
	default:
		return fmt.Errorf("unknown page limit scope %q (want %s or %s)", c.PageLimitScope, ScopeDocument, ScopeRun)
	}
	switch c.Renderer {
	case "pdfium", "fitz":
	default:
		return fmt.Errorf("unknown renderer %q (want pdfium or fitz)", c.Renderer)
	}
	switch c.DatabaseType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database type %q (want sqlite or postgres)", c.DatabaseType)
	}
	if c.Every < 0 {
		return fmt.Errorf("--every must not be negative")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SetupLogging configures the application logger. --verbose and --quiet win over LOG_LEVEL.
func SetupLogging(cfg Config) *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	if cfg.Quiet {
		level = slog.LevelWarn
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "stderr")
	var logWriter io.Writer

	switch logOutput {
	case "stdout":
		logWriter = os.Stdout
	case "file":
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "pageshot.log")))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating log file path: %v\n", err)
			logWriter = os.Stderr
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
				logWriter = os.Stderr
			} else {
				logWriter = logFile
			}
		}
	default:
		logWriter = os.Stderr
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	logger := slog.New(handler)
	Logger = logger
	return logger
}
