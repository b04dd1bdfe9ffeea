package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/amoylab/casamento/pkg/trace"
)

// Row visibility modes of the API
const (
	ScopeNone  = "none"
	ScopeOwner = "owner"
)

type (
	APIServerConfig struct {
		Server        ServerConfig        `yaml:"server"`
		Database      DatabaseConfig      `yaml:"database"`
		Logger        LoggerConfig        `yaml:"logger"`
		JWT           JWTConfig           `yaml:"jwt"`
		SuperAdmin    SuperAdminConfig    `yaml:"super_admin"`
		I18n          I18nConfig          `yaml:"i18n"`
		Media         MediaConfig         `yaml:"media"`
		Authorization AuthorizationConfig `yaml:"authorization"`
		CORS          CORSConfig          `yaml:"cors"`
		Metrics       MetricsConfig       `yaml:"metrics"`
		Tracing       trace.Config        `yaml:"tracing"`
	}

	// ServerConfig represents the HTTP listener configuration
	ServerConfig struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		PIDFile         string        `yaml:"pid_file"` // written on start when set
	}

	// I18nConfig represents the internationalization configuration
	I18nConfig struct {
		Path string `yaml:"path"` // Path to i18n translation files
	}

	DatabaseConfig struct {
		Type     string `yaml:"type"`     // mysql, postgres, sqlite, etc.
		Host     string `yaml:"host"`     // localhost
		Port     int    `yaml:"port"`     // 3306 (for mysql), 5432 (for postgres)
		User     string `yaml:"user"`     // root (for mysql), postgres (for postgres)
		Password string `yaml:"password"` // password
		DBName   string `yaml:"dbname"`   // database name
		SSLMode  string `yaml:"sslmode"`  // disable (for postgres)
	}

	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	// MediaConfig controls how stored file references are exposed
	MediaConfig struct {
		URL string `yaml:"url"` // prefix of file fields on the wire, e.g. /media/
	}

	// AuthorizationConfig selects the row visibility policy
	AuthorizationConfig struct {
		Scope string `yaml:"scope"` // none or owner
	}

	CORSConfig struct {
		AllowOrigins     []string `yaml:"allow_origins"`
		AllowCredentials bool     `yaml:"allow_credentials"`
	}

	MetricsConfig struct {
		Enabled   bool      `yaml:"enabled"`
		Namespace string    `yaml:"namespace"`
		Buckets   []float64 `yaml:"buckets"`
	}
)

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case "postgres":
		return c.getPostgresDSN()
	case "mysql":
		return c.getMySQLDSN()
	case "sqlite":
		if c.DBName == ":memory:" {
			return c.DBName
		}
		// Ensure the directory for the SQLite database exists.
		// If the directory cannot be created, it's a fatal error.
		if err := os.MkdirAll(filepath.Dir(c.DBName), 0755); err != nil {
			panic(fmt.Errorf("failed to create directory for sqlite database: %w", err))
		}
		return c.DBName // For SQLite, DBName is the file path
	default:
		return ""
	}
}

// getPostgresDSN returns PostgreSQL connection string
func (c *DatabaseConfig) getPostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// getMySQLDSN returns MySQL connection string
func (c *DatabaseConfig) getMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// applyDefaults fills the settings left empty in the file
func (c *APIServerConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
		c.Database.DBName = "./data/casamento.db"
	}
	if c.JWT.Duration <= 0 {
		c.JWT.Duration = 24 * time.Hour
	}
	if c.I18n.Path == "" {
		c.I18n.Path = "configs/i18n"
	}
	if c.Media.URL == "" {
		c.Media.URL = "/media/"
	}
	if c.Authorization.Scope == "" {
		c.Authorization.Scope = ScopeNone
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "casamento"
	}
	if c.Tracing.Protocol == "" {
		c.Tracing.Protocol = "grpc"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "casamento-apiserver"
	}
}

// Validate reports settings the server cannot start with
func (c *APIServerConfig) Validate() error {
	switch c.Authorization.Scope {
	case ScopeNone, ScopeOwner:
	default:
		return fmt.Errorf("authorization.scope must be %q or %q, got %q", ScopeNone, ScopeOwner, c.Authorization.Scope)
	}
	switch c.Database.Type {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}
