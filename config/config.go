// Package config loads server and tool settings from defaults, an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mbtiatlas/insights/consts"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment, e.g. MBTI_TOP_N.
const EnvPrefix = "MBTI"

type Config struct {
	Port                string        `validate:"required,numeric"`
	DataFolder          string        `validate:"required"`
	DefaultFile         string        `validate:"required"`
	DBFile              string        `validate:"required"`
	ChartDataDir        string        `validate:"required"`
	APIKey              string
	LogLevel            string        `validate:"oneof=debug info warn error"`
	UploadRetentionDays int           `validate:"min=1"`
	CacheTTL            time.Duration `validate:"min=0"`
	TopN                int           `validate:"min=5,max=20"`
}

var validate = validator.New()

// Load reads the configuration. An empty file looks for mbti.yaml in the working
// directory and tolerates its absence; an explicit file must exist.
// Relative file paths are resolved against DataFolder.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetDefault("port", consts.DefaultPort)
	v.SetDefault("data_folder", ".")
	v.SetDefault("default_file", consts.DefaultDataFile)
	v.SetDefault("db_file", consts.DBFile)
	v.SetDefault("chart_data_dir", consts.ChartDataDir)
	v.SetDefault("api_key", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("upload_retention_days", consts.UploadRetentionDays)
	v.SetDefault("cache_ttl", consts.DatasetCacheTTL)
	v.SetDefault("top_n", consts.TopNDefault)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// The unprefixed names predate the prefix and are still honoured.
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")
	_ = v.BindEnv("data_folder", EnvPrefix+"_DATA_FOLDER", "DATA_FOLDER")
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "API_KEY")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("mbti")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Port:                v.GetString("port"),
		DataFolder:          v.GetString("data_folder"),
		DefaultFile:         v.GetString("default_file"),
		DBFile:              v.GetString("db_file"),
		ChartDataDir:        v.GetString("chart_data_dir"),
		APIKey:              v.GetString("api_key"),
		LogLevel:            v.GetString("log_level"),
		UploadRetentionDays: v.GetInt("upload_retention_days"),
		CacheTTL:            v.GetDuration("cache_ttl"),
		TopN:                v.GetInt("top_n"),
	}
	cfg.DefaultFile = cfg.resolve(cfg.DefaultFile)
	cfg.DBFile = cfg.resolve(cfg.DBFile)
	cfg.ChartDataDir = cfg.resolve(cfg.ChartDataDir)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataFolder, path)
}
