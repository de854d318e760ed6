package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Model  ModelConfig  `mapstructure:"model"`
	Limits LimitsConfig `mapstructure:"limits"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type ModelConfig struct {
	Path        string `mapstructure:"path"`
	LibraryPath string `mapstructure:"library_path"`
	Device      string `mapstructure:"device"` // auto, cpu or cuda
	PoolSize    int    `mapstructure:"pool_size"`
	InputSize   int    `mapstructure:"input_size"`
	InputName   string `mapstructure:"input_name"`
	OutputName  string `mapstructure:"output_name"`
}

type LimitsConfig struct {
	MaxUploadSize int64 `mapstructure:"max_upload_size"`
}

// Load reads the YAML config at the given path on top of the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New loads config.yaml, falling back to defaults when the file is absent.
// A present but unreadable or malformed file is fatal so a typo never
// silently runs the server on defaults.
func New() *Config {
	cfg, err := Load("config.yaml")
	if err == nil {
		return cfg
	}
	if errors.Is(err, os.ErrNotExist) {
		return defaults()
	}
	fmt.Fprintf(os.Stderr, "invalid config.yaml: %v\n", err)
	os.Exit(1)
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":1337")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Minute)
	v.SetDefault("server.write_timeout", 10*time.Minute)

	v.SetDefault("auth.api_key", "")

	v.SetDefault("model.path", "weights/birefnet_toonout.onnx")
	v.SetDefault("model.library_path", "lib")
	v.SetDefault("model.device", "auto")
	v.SetDefault("model.pool_size", 1)
	v.SetDefault("model.input_size", 1024)
	v.SetDefault("model.input_name", "input_image")
	v.SetDefault("model.output_name", "output_image")

	v.SetDefault("limits.max_upload_size", 200*1024*1024)
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("auth.api_key", "TOONOUT_API_KEY")
}

func defaults() *Config {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("invalid default config: %v", err))
	}
	return &cfg
}
