package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog-import-service/internal/models"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// Server
	Port        string
	Environment string

	// Storage
	AssetDir   string // root for imported image assets
	ScratchDir string // root for per-run extraction directories

	// Import defaults; the persisted settings table overrides these per-run
	Delimiter      string
	Enclosure      string
	MaxLineLength  int
	MaxRunSeconds  int
	DefaultImageID string
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	maxLineLength, _ := strconv.Atoi(getEnv("IMPORT_MAX_LINE_LENGTH", "1000"))
	maxRunSeconds, _ := strconv.Atoi(getEnv("IMPORT_MAX_RUN_SECONDS", "60"))

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "catalog_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		Port:        getEnv("PORT", "8094"),
		Environment: getEnv("ENVIRONMENT", "development"),

		AssetDir:   getEnv("ASSET_DIR", "./data/assets"),
		ScratchDir: getEnv("SCRATCH_DIR", os.TempDir()),

		Delimiter:      getEnv("IMPORT_DELIMITER", ","),
		Enclosure:      getEnv("IMPORT_ENCLOSURE", `"`),
		MaxLineLength:  maxLineLength,
		MaxRunSeconds:  maxRunSeconds,
		DefaultImageID: getEnv("IMPORT_DEFAULT_IMAGE_ID", ""),
	}
}

// ImportSettings returns the environment-level defaults for the import
// configuration surface. Persisted settings override these per key.
func (c *Config) ImportSettings() models.ImportSettings {
	return models.ImportSettings{
		Delimiter:      c.Delimiter,
		Enclosure:      c.Enclosure,
		MaxLineLength:  c.MaxLineLength,
		MaxRunSeconds:  c.MaxRunSeconds,
		DefaultImageID: c.DefaultImageID,
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(
		&models.Product{},
		&models.ProductGroup{},
		&models.AttributeKey{},
		&models.AttributeOption{},
		&models.AttributeValue{},
		&models.StoredFile{},
		&models.Translation{},
		&models.PageSection{},
		&models.Page{},
		&models.Setting{},
	); err != nil {
		return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
