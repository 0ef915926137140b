package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const devSessionSecret = "dev-session-secret-change-me-in-production"

type Config struct {
	DatabaseURL    string `envconfig:"DATABASE_URL"     required:"true"`
	HTTPAddr       string `envconfig:"HTTP_ADDR"        default:":8080"`
	LogLevel       string `envconfig:"LOG_LEVEL"        default:"info"`
	SessionSecret  string `envconfig:"SESSION_SECRET"   default:"dev-session-secret-change-me-in-production"`
	CookieSecure   bool   `envconfig:"COOKIE_SECURE"    default:"true"`
	ImageDir       string `envconfig:"IMAGE_DIR"        default:"static/product_pics"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"16777216"`
	SiteBaseURL    string `envconfig:"SITE_BASE_URL"    default:"https://www.suportesmartparagominas.com.br"`
	AutoMigrate    bool   `envconfig:"AUTO_MIGRATE"     default:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load(logger logrus.FieldLogger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		}
	} else {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	if cfg.SessionSecret == devSessionSecret {
		logger.Warn("SESSION_SECRET is not set, using the development secret")
	}
	logger.WithFields(logrus.Fields{
		"http_addr": cfg.HTTPAddr,
		"log_level": cfg.LogLevel,
		"image_dir": cfg.ImageDir,
	}).Info("Configuration loaded")
	return &cfg, nil
}

// NewLogger builds the JSON logger shared by every component.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Unknown log level %q, falling back to info", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
