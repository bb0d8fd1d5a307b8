package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env string `mapstructure:"env"`

	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`

	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`

	Sensor struct {
		Enabled  bool          `mapstructure:"enabled"`
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"sensor"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// Load reads config.yaml (optional), a .env file (optional) and
// FARMOPS_* environment variables, with the environment winning.
func Load(path string) (Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetDefault("env", "dev")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.url", "")
	v.SetDefault("sensor.enabled", true)
	v.SetDefault("sensor.interval", 5*time.Second)
	v.SetDefault("metrics.enabled", true)

	v.SetEnvPrefix("FARMOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(c.Database.URL) == "" {
		return Config{}, fmt.Errorf("database.url is required (config.yaml or FARMOPS_DATABASE_URL)")
	}
	if c.Sensor.Interval <= 0 {
		return Config{}, fmt.Errorf("sensor.interval must be positive, got %s", c.Sensor.Interval)
	}
	return c, nil
}
