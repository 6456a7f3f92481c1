package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Model    ModelConfig    `mapstructure:"model"`
	Embedder EmbedderConfig `mapstructure:"embedder"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port          int        `mapstructure:"port"`
	Mode          string     `mapstructure:"mode"`
	SessionSecret string     `mapstructure:"session_secret"`
	CORS          CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// UploadsConfig controls the upload scratch directory and its retention.
type UploadsConfig struct {
	Dir           string        `mapstructure:"dir"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ModelConfig locates the embedding model asset and its download source.
type ModelConfig struct {
	Path string `mapstructure:"path"`
	URL  string `mapstructure:"url"`
}

// EmbedderConfig mirrors the toolkit options the original service was built
// with: {l2_normalize: true, quantize: true}. Quantization affects the
// precision of returned vectors, so both knobs are kept configurable.
type EmbedderConfig struct {
	L2Normalize bool `mapstructure:"l2_normalize"`
	Quantize    bool `mapstructure:"quantize"`
	Threads     int  `mapstructure:"threads"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"` // sqlite file path
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.session_secret", "imagesim-dev-secret")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("uploads.dir", "./uploads")
	v.SetDefault("uploads.max_body_bytes", int64(16*1024*1024))
	v.SetDefault("uploads.retention", "24h")
	v.SetDefault("uploads.sweep_interval", "1h")
	v.SetDefault("model.path", "./models/embedder.tflite")
	v.SetDefault("model.url", "https://storage.googleapis.com/mediapipe-models/image_embedder/mobilenet_v3_small/float32/1/mobilenet_v3_small.tflite")
	v.SetDefault("embedder.l2_normalize", true)
	v.SetDefault("embedder.quantize", true)
	v.SetDefault("embedder.threads", 4)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/uploads.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for deployment-sensitive values
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.session_secret", "SESSION_SECRET")
	v.BindEnv("uploads.dir", "UPLOAD_DIR")
	v.BindEnv("model.path", "MODEL_PATH")
	v.BindEnv("model.url", "MODEL_URL")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.password", "DB_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
