package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	FiresPath         string
	TemperaturePath   string
	PrecipitationPath string
	DroughtPath       string
	ClimateOutputPath string
	OutputPath        string

	MinYear int
	MaxYear int
	Workers int

	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Optional Kafka sink; disabled when no brokers are configured.
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int
}

// KafkaEnabled reports whether enriched records are also published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where
// unset. Variables in ENV_FILE (default ".env") are loaded first without
// overriding the process environment; a missing file is ignored.
func Load() (*Config, error) {
	if err := loadEnvFile(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	minYear, err := parsePositiveInt("MIN_YEAR", 1992)
	if err != nil {
		return nil, err
	}
	maxYear, err := parsePositiveInt("MAX_YEAR", 2015)
	if err != nil {
		return nil, err
	}
	workers, err := parsePositiveInt("WORKERS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		FiresPath:         sharedcfg.EnvOrDefault("FIRES_PATH", "wildfire_data.csv"),
		TemperaturePath:   sharedcfg.EnvOrDefault("TMP_PATH", "climdiv-tmpcst-v1.0.0-20230106.txt"),
		PrecipitationPath: sharedcfg.EnvOrDefault("PCP_PATH", "climdiv-pcpnst-v1.0.0-20230106.txt"),
		DroughtPath:       sharedcfg.EnvOrDefault("PDSI_PATH", "climdiv-pdsist-v1.0.0-20230106.txt"),
		ClimateOutputPath: envOrDefaultAllowEmpty("CLIMATE_OUTPUT_PATH", "wildfire_data_with_climate.csv"),
		OutputPath:        sharedcfg.EnvOrDefault("OUTPUT_PATH", "wildfire_data_climate_nearby.csv"),
		MinYear:           minYear,
		MaxYear:           maxYear,
		Workers:           workers,
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:          os.Getenv("HTTP_ADDR"),
		ShutdownTimeout:   shutdownTimeout,
		KafkaBrokers:      brokers,
		KafkaTopic:        sharedcfg.EnvOrDefault("KAFKA_TOPIC", "wildfire-features"),
		BatchSize:         batchSize,
	}

	if cfg.MinYear > cfg.MaxYear {
		return nil, errors.New("MIN_YEAR must not be greater than MAX_YEAR")
	}
	if cfg.OutputPath == cfg.FiresPath {
		return nil, errors.New("OUTPUT_PATH must differ from FIRES_PATH")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load ENV_FILE %s: %w", path, err)
	}
	return nil
}

// envOrDefaultAllowEmpty distinguishes an unset variable from one explicitly
// set to "", which disables the optional output.
func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
