package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/harvester/pkg/constants"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Storage
	DatabaseURL     string
	DatabaseTimeout time.Duration

	// Event publishing
	NATSURL     string
	NATSSubject string

	// Harvest configuration
	SourcesFile      string
	Workers          int
	MaxPages         int
	ForceReimport    bool
	ScheduleInterval time.Duration
	HarvestTimeout   time.Duration
	MetricsAddr      string

	// Fetch limits
	MaxFileSize int64
	ChunkSize   int
	FetchRate   float64 // Requests per second for sources without their own rate_limit

	// Conversion fallbacks
	FallbackPublisher    string
	FallbackLanguage     string
	FallbackTheme        string
	LicenseLookup        bool
	LicenseLookupTimeout time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.harvester.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults()

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(constants.DefaultConfigFile)
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Format:  viper.GetString("format"),

		ConfigFile: viper.ConfigFileUsed(),

		DatabaseURL:     viper.GetString("database_url"),
		DatabaseTimeout: viper.GetDuration("database_timeout"),

		NATSURL:     viper.GetString("nats_url"),
		NATSSubject: viper.GetString("nats_subject"),

		SourcesFile:      viper.GetString("sources_file"),
		Workers:          viper.GetInt("import_workers"),
		MaxPages:         viper.GetInt("max_pages"),
		ForceReimport:    viper.GetBool("force_reimport"),
		ScheduleInterval: viper.GetDuration("schedule_interval"),
		HarvestTimeout:   viper.GetDuration("harvest_timeout"),
		MetricsAddr:      viper.GetString("metrics_addr"),

		MaxFileSize: viper.GetInt64("max_file_size_bytes"),
		ChunkSize:   viper.GetInt("chunk_size_bytes"),
		FetchRate:   viper.GetFloat64("fetch_rate"),

		FallbackPublisher:    viper.GetString("fallback_publisher_name"),
		FallbackLanguage:     viper.GetString("fallback_language"),
		FallbackTheme:        viper.GetString("fallback_theme"),
		LicenseLookup:        viper.GetBool("license_lookup"),
		LicenseLookupTimeout: viper.GetDuration("license_lookup_timeout"),

		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("database_timeout", constants.DefaultTimeout)
	viper.SetDefault("sources_file", constants.DefaultSourcesFile)
	viper.SetDefault("import_workers", constants.DefaultImportWorkers)
	viper.SetDefault("max_file_size_bytes", constants.MaxFileSizeBytes)
	viper.SetDefault("chunk_size_bytes", constants.ChunkSizeBytes)
	viper.SetDefault("license_lookup_timeout", constants.LicenseLookupTimeout)
	viper.SetDefault("schedule_interval", constants.DefaultScheduleInterval)
	viper.SetDefault("harvest_timeout", constants.HarvestTimeout)
	viper.SetDefault("license_lookup", true)
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so its values win, godotenv never overrides
// a variable that is already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
