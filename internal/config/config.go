package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		Env                string   `mapstructure:"env"`
		BaseURL            string   `mapstructure:"base_url"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	JWT struct {
		Secret     string `mapstructure:"secret"`
		Issuer     string `mapstructure:"issuer"`
		CookieName string `mapstructure:"cookie_name"`
	} `mapstructure:"jwt"`

	Redis struct {
		Enabled  bool   `mapstructure:"enabled"`
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Realtime struct {
		Channel         string        `mapstructure:"channel"`
		SendBuffer      int           `mapstructure:"send_buffer"`
		QueueSize       int           `mapstructure:"queue_size"`
		PingInterval    time.Duration `mapstructure:"ping_interval"`
		MaxMessageBytes int64         `mapstructure:"max_message_bytes"`
	} `mapstructure:"realtime"`

	Storage struct {
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		Bucket    string `mapstructure:"bucket"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		PublicURL string `mapstructure:"public_url"`
	} `mapstructure:"storage"`

	TOTP struct {
		Issuer string `mapstructure:"issuer"`
	} `mapstructure:"totp"`
}

// IsDevelopment gates the insecure cookie flag and diagnostic error detail.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Env)
	return env == "development" || env == "dev" || env == "local"
}

// StorageEnabled reports whether vehicle images go to object storage.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Bucket != ""
}

// Load reads the server configuration. A missing JWT secret is fatal.
func Load() *Config {
	cfg := read()
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	return cfg
}

// LoadForTools reads the configuration for the admin CLI, which never
// signs tokens.
func LoadForTools() *Config {
	return read()
}

func read() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	// Auto bind environment variables, jwt.secret <- JWT_SECRET
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	applyEnvOverrides(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5500)
	v.SetDefault("server.env", "production")
	v.SetDefault("server.base_url", "http://localhost:5500")
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:5500"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Content-Type", "X-Requested-With"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "cse340")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "cse-motors")
	v.SetDefault("jwt.cookie_name", "jwt")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("realtime.channel", "cse-motors:notify")
	v.SetDefault("realtime.send_buffer", 16)
	v.SetDefault("realtime.queue_size", 256)
	v.SetDefault("realtime.ping_interval", 50*time.Second)
	v.SetDefault("realtime.max_message_bytes", 8192)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.public_url", "")

	v.SetDefault("totp.issuer", "CSE Motors")
}

// applyEnvOverrides honours the conventional unprefixed variables used by
// hosting providers (PORT, APP_ENV, DB_*) on top of the viper keys.
func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Server.Env = env
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}
	if addr := os.Getenv("REDIS_URL"); addr != "" {
		cfg.Redis.Addr = strings.TrimPrefix(addr, "redis://")
	}
}
