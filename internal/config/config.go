package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Activation ActivationConfig `mapstructure:"activation"`
	History    HistoryConfig    `mapstructure:"history"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
	UploadDir         string        `mapstructure:"upload_dir"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	Temperature       float32 `mapstructure:"temperature"`
	TopP              float32 `mapstructure:"top_p"`
	TopK              int32   `mapstructure:"top_k"`
	MaxOutputTokens   int32   `mapstructure:"max_output_tokens"`
	ResponseMIMEType  string  `mapstructure:"response_mime_type"`
	SystemInstruction string  `mapstructure:"system_instruction"`
	CodeExecution     bool    `mapstructure:"code_execution"`
}

// ActivationConfig bounds the wait for uploaded documents to become active.
// Zero MaxAttempts or Timeout disables that bound.
type ActivationConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type HistoryConfig struct {
	Backend  string         `mapstructure:"backend"`
	Dir      string         `mapstructure:"dir"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mongo    MongoConfig    `mapstructure:"mongo"`

	// EncryptionKey is a base64 AES key; when set records are sealed at rest
	EncryptionKey string `mapstructure:"encryption_key"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

func (c MySQLConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type PostgresConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Database    string `mapstructure:"database"`
	SSLMode     string `mapstructure:"ssl_mode"`
	MaxConns    int32  `mapstructure:"max_conns"`
	MinConns    int32  `mapstructure:"min_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type ChatConfig struct {
	// Priming seeds every new remote chat with the few-shot example exchange
	Priming bool   `mapstructure:"priming"`
	Welcome string `mapstructure:"welcome"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "15m")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.middleware_timeout", "15m")
	v.SetDefault("server.upload_dir", "./uploads")
	v.SetDefault("server.max_upload_bytes", 100<<20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Gemini
	v.SetDefault("gemini.model", "gemini-1.5-pro-exp-0827")
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.95)
	v.SetDefault("gemini.top_k", 64)
	v.SetDefault("gemini.max_output_tokens", 100000)
	v.SetDefault("gemini.response_mime_type", "text/plain")
	v.SetDefault("gemini.code_execution", true)

	// Activation
	v.SetDefault("activation.interval", "1s")
	v.SetDefault("activation.max_attempts", 0)
	v.SetDefault("activation.timeout", "10m")

	// History
	v.SetDefault("history.backend", "file")
	v.SetDefault("history.dir", "chat_histories")
	v.SetDefault("history.sqlite.path", "./data/history.db")
	v.SetDefault("history.mysql.host", "localhost")
	v.SetDefault("history.mysql.port", 3306)
	v.SetDefault("history.mysql.user", "auditlens")
	v.SetDefault("history.mysql.database", "auditlens")
	v.SetDefault("history.postgres.host", "localhost")
	v.SetDefault("history.postgres.port", 5432)
	v.SetDefault("history.postgres.user", "auditlens")
	v.SetDefault("history.postgres.database", "auditlens")
	v.SetDefault("history.postgres.ssl_mode", "disable")
	v.SetDefault("history.postgres.max_conns", 10)
	v.SetDefault("history.postgres.min_conns", 1)
	v.SetDefault("history.postgres.auto_migrate", false)
	v.SetDefault("history.redis.host", "localhost")
	v.SetDefault("history.redis.port", 6379)
	v.SetDefault("history.redis.db", 0)
	v.SetDefault("history.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("history.mongo.database", "auditlens")
	v.SetDefault("history.mongo.collection", "transcripts")

	// Chat
	v.SetDefault("chat.priming", false)
	v.SetDefault("chat.welcome", "Welcome! Please upload an audit report (pdf) to begin.")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")
}

func bindEnvVars(v *viper.Viper) {
	// Gemini
	v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("gemini.model", "GEMINI_MODEL")

	// History
	v.BindEnv("history.backend", "HISTORY_BACKEND")
	v.BindEnv("history.dir", "HISTORY_DIR")
	v.BindEnv("history.encryption_key", "HISTORY_ENCRYPTION_KEY")
	v.BindEnv("history.mysql.password", "MYSQL_PASSWORD")
	v.BindEnv("history.postgres.password", "POSTGRES_PASSWORD")
	v.BindEnv("history.redis.password", "REDIS_PASSWORD")
	v.BindEnv("history.mongo.uri", "MONGO_URI")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
}
