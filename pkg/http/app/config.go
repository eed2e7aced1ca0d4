package app

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the application specific configuration.
// It is passed to the App.Init function, and is optional.
type Config map[string]interface{}

// BaseConfig contains the base configuration for services, as well as the
// application itself.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	ListenAddress      string `mapstructure:"listen_address"`
	DebugListenAddress string `mapstructure:"debug_listen_address"`

	// TLSCertificate is an optional URL that specifies a TLS certificate to be
	// used for the HTTP server. If no scheme is specified, file is used.
	TLSCertificate string `mapstructure:"tls_certificate"`
	// TLSKey is an optional URL that specifies a TLS private key to be used for
	// the HTTP server. If no scheme is specified, file is used.
	TLSKey string `mapstructure:"tls_private_key"`

	ReadHeaderTimeout   time.Duration `mapstructure:"read_header_timeout"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	EnablePprof  bool `mapstructure:"enable_pprof"`
	EnableExpvar bool `mapstructure:"enable_expvar"`

	// Ballast for improving Go GC performance. Note that capacity will be
	// limited to 50% of the total memory.
	// https://blog.twitch.tv/en/2019/04/10/go-memory-ballast-how-i-learnt-to-stop-worrying-and-love-the-heap/
	EnableBallast   bool    `mapstructure:"enable_ballast"`
	BallastCapacity float32 `mapstructure:"ballast_capacity"`

	// Periodically terminate the application when there's a memory leak
	EnableMemoryLeakCron   bool   `mapstructure:"enable_memory_leak_cron"`
	MemoryLeakCronSchedule string `mapstructure:"memory_leak_cron_schedule"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	// Arbitrary configuration that the service can define / implement.
	//
	// Users should use mapstructure.Decode for AppConfig.
	AppConfig Config `mapstructure:"app"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	AppName: "solkit",

	ListenAddress:      ":8080",
	DebugListenAddress: "localhost:8123",

	ReadHeaderTimeout:   10 * time.Second,
	ShutdownGracePeriod: 30 * time.Second,

	EnablePprof:  false,
	EnableExpvar: false,

	EnableBallast:   false,
	BallastCapacity: 0.333,

	EnableMemoryLeakCron:   false,
	MemoryLeakCronSchedule: "0 5 * * *",
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("listen_address", "LISTEN_ADDRESS")
	_ = viper.BindEnv("debug_listen_address", "DEBUG_LISTEN_ADDRESS")

	_ = viper.BindEnv("tls_certificate", "TLS_CERTIFICATE")
	_ = viper.BindEnv("tls_private_key", "TLS_PRIVATE_KEY")

	_ = viper.BindEnv("read_header_timeout", "READ_HEADER_TIMEOUT")
	_ = viper.BindEnv("shutdown_grace_period", "SHUTDOWN_GRACE_PERIOD")

	_ = viper.BindEnv("enable_pprof", "ENABLE_PPROF")
	_ = viper.BindEnv("enable_expvar", "ENABLE_EXPVAR")

	_ = viper.BindEnv("enable_ballast", "ENABLE_BALLAST")
	_ = viper.BindEnv("ballast_capacity", "BALLAST_CAPACITY")

	_ = viper.BindEnv("enable_memory_leak_cron", "ENABLE_MEMORY_LEAK_CRON")
	_ = viper.BindEnv("memory_leak_cron_schedule", "MEMORY_LEAK_CRON_SCHEDULE")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}

// LoadConfig reads the configuration file at configPath, if it exists, and
// merges it with the environment and the defaults.
func LoadConfig(configPath string) (BaseConfig, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file because one hasn't been explicitly set. That is,
	// if we explicitly set a config file, and it does not exist, viper will not
	// return a ConfigFileNotFoundError, so we skip it ourselves.
	if len(configPath) > 0 {
		if _, err := os.Stat(configPath); err == nil {
			viper.SetConfigFile(configPath)
			if err := viper.ReadInConfig(); err != nil {
				return BaseConfig{}, errors.Wrap(err, "failed to load config")
			}
		} else if !os.IsNotExist(err) {
			return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
		}
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return BaseConfig{}, errors.New("must specify an application name")
	}

	return config, nil
}
