package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/skillsharecyber/courseplatform/internal/models"
)

type Config struct {
	PORT                 string
	LOG_LEVEL            string
	DB_HOST              string
	DB_PORT              string
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	REDIS_ADDR           string
	REDIS_PASSWORD       string
	JWT_SECRET           string
	REFRESH_SECRET       string
	KAFKA_ADDRESS        string
	ES_URL               string
	ES_USER              string
	ES_PASSWORD          string
	SMTP_HOST            string
	SMTP_PORT            string
	SMTP_USER            string
	SMTP_PASS            string
	MAIL_FROM            string
	GOOGLE_CLIENT_ID     string
	GOOGLE_CLIENT_SECRET string
	GOOGLE_REDIRECT_URL  string
	CLOUDINARY_CLOUD     string
	CLOUDINARY_KEY       string
	CLOUDINARY_SECRET    string
	FRONTEND_URL         string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:                 os.Getenv("PORT"),
		LOG_LEVEL:            os.Getenv("LOG_LEVEL"),
		DB_HOST:              os.Getenv("DB_HOST"),
		DB_PORT:              os.Getenv("DB_PORT"),
		DB_USER:              os.Getenv("DB_USER"),
		DB_PASSWORD:          os.Getenv("DB_PASSWORD"),
		DB_NAME:              os.Getenv("DB_NAME"),
		REDIS_ADDR:           os.Getenv("REDIS_ADDR"),
		REDIS_PASSWORD:       os.Getenv("REDIS_PASSWORD"),
		JWT_SECRET:           os.Getenv("JWT_SECRET"),
		REFRESH_SECRET:       os.Getenv("REFRESH_SECRET"),
		KAFKA_ADDRESS:        os.Getenv("KAFKA_ADDRESS"),
		ES_URL:               os.Getenv("ES_URL"),
		ES_USER:              os.Getenv("ES_USER"),
		ES_PASSWORD:          os.Getenv("ES_PASSWORD"),
		SMTP_HOST:            os.Getenv("SMTP_HOST"),
		SMTP_PORT:            os.Getenv("SMTP_PORT"),
		SMTP_USER:            os.Getenv("SMTP_USER"),
		SMTP_PASS:            os.Getenv("SMTP_PASS"),
		MAIL_FROM:            os.Getenv("MAIL_FROM"),
		GOOGLE_CLIENT_ID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GOOGLE_CLIENT_SECRET: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GOOGLE_REDIRECT_URL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		CLOUDINARY_CLOUD:     os.Getenv("CLOUDINARY_CLOUD"),
		CLOUDINARY_KEY:       os.Getenv("CLOUDINARY_KEY"),
		CLOUDINARY_SECRET:    os.Getenv("CLOUDINARY_SECRET"),
		FRONTEND_URL:         os.Getenv("FRONTEND_URL"),
	}

	if config.JWT_SECRET == "" || config.REFRESH_SECRET == "" {
		return nil, fmt.Errorf("JWT_SECRET and REFRESH_SECRET must be set")
	}
	if config.JWT_SECRET == config.REFRESH_SECRET {
		return nil, fmt.Errorf("JWT_SECRET and REFRESH_SECRET must be distinct")
	}
	if config.PORT == "" {
		config.PORT = "8080"
	}

	return config, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.ExamSubmission{},
		&models.ActivityLog{},
	); err != nil {
		return nil, fmt.Errorf("cannot migrate schema: %w", err)
	}
	return db, nil
}

func NewRedisClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.REDIS_ADDR,
		Password: cfg.REDIS_PASSWORD,
	})
}
