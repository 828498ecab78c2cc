package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	App        AppConfig        `toml:"app"`
	Server     ServerConfig     `toml:"server"`
	Mongo      MongoConfig      `toml:"mongo"`
	Clerk      ClerkConfig      `toml:"clerk"`
	Cloudinary CloudinaryConfig `toml:"cloudinary"`
	Admin      AdminConfig      `toml:"admin"`
	Uploads    UploadsConfig    `toml:"uploads"`
	Logging    LoggingConfig    `toml:"logging"`
	Tunnel     TunnelConfig     `toml:"tunnel"`
}

// AppConfig identifies the application. Name has no default and must be set
// in the config file or via APP_NAME.
type AppConfig struct {
	Name string `toml:"name"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         string `toml:"port"`
	Host         string `toml:"host"`
	EnableCORS   bool   `toml:"enable_cors"`
	ReadTimeout  int    `toml:"read_timeout_seconds"`
	WriteTimeout int    `toml:"write_timeout_seconds"`
	IdleTimeout  int    `toml:"idle_timeout_seconds"`
}

// MongoConfig contains document-store connection settings
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// ClerkConfig contains identity-provider credentials
type ClerkConfig struct {
	SecretKey string `toml:"secret_key"`
}

// CloudinaryConfig contains media-host credentials
type CloudinaryConfig struct {
	CloudName string `toml:"cloud_name"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
}

// AdminConfig identifies the single administrator account
type AdminConfig struct {
	Email string `toml:"email"`
}

// UploadsConfig bounds admin media uploads
type UploadsConfig struct {
	MaxFileSizeMB int64 `toml:"max_file_size_mb"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	RequestLogging bool   `toml:"request_logging"`
}

// TunnelConfig contains optional ngrok tunnel configuration
type TunnelConfig struct {
	Enabled   bool   `toml:"enabled"`
	AuthToken string `toml:"auth_token"`
	Domain    string `toml:"domain"`
}

// DefaultConfig returns a configuration with sensible defaults. Every field
// except the application name has a built-in default.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			Host:         "0.0.0.0",
			EnableCORS:   true,
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "cadenza",
		},
		Clerk: ClerkConfig{
			SecretKey: "default_clerk_secret_key",
		},
		Cloudinary: CloudinaryConfig{
			CloudName: "default_cloudinary_cloud_name",
			APIKey:    "default_cloudinary_api_key",
			APISecret: "default_cloudinary_secret_key",
		},
		Admin: AdminConfig{
			Email: "default_admin_email",
		},
		Uploads: UploadsConfig{
			MaxFileSizeMB: 10,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			RequestLogging: true,
		},
		Tunnel: TunnelConfig{
			Enabled:   false,
			AuthToken: "",
			Domain:    "",
		},
	}
}

// LoadConfig loads configuration from a TOML file, then applies .env and
// environment overrides for secrets and deployment-specific values.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
	} else if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides loads .env if present and overrides config values from the
// environment. Environment always wins over the file.
func (c *Config) ApplyEnvOverrides() {
	// Best-effort: a missing .env just means plain environment variables
	_ = godotenv.Load(".env")

	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.App.Name, "APP_NAME")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DBNAME")
	setString(&c.Clerk.SecretKey, "CLERK_SECRET_KEY")
	setString(&c.Cloudinary.CloudName, "CLOUDINARY_CLOUD_NAME")
	setString(&c.Cloudinary.APIKey, "CLOUDINARY_API_KEY")
	setString(&c.Cloudinary.APISecret, "CLOUDINARY_SECRET_KEY")
	setString(&c.Admin.Email, "ADMIN_EMAIL")
	setString(&c.Tunnel.AuthToken, "NGROK_AUTHTOKEN")

	if v := os.Getenv("MAX_FILE_SIZE_MB"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Uploads.MaxFileSizeMB = size
		}
	}
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# Cadenza Streaming Backend Configuration
# Secrets (mongo, clerk, cloudinary) are better supplied via environment
# variables or a .env file; values set there override this file.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name cannot be empty (set app.name or APP_NAME)")
	}

	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo uri cannot be empty")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo database cannot be empty")
	}

	if c.Uploads.MaxFileSizeMB < 1 {
		return fmt.Errorf("max upload size must be at least 1 MB")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Uploads.MaxFileSizeMB * 1024 * 1024
}
