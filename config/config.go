package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	JWTKey string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// Admin dashboard login (single configured account)
	AdminUsername     string
	AdminPasswordHash string

	// Certificate storage
	CertDir       string
	CertURLPrefix string
	CertFont      string // optional TTF path; built-in face is used when empty

	// SMS notifications
	SMSApiKey string
	SMSApiUrl string

	// Admin digest email
	EmailSender string
	Password    string // SMTP app password
	AdminEmail  string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:   getEnv("PORT", "5000"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "quizdb"),
		DBPort:     getEnv("DB_PORT", "5432"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		// bcrypt hash; empty disables admin login entirely
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		CertDir:       getEnv("CERT_DIR", "certificates"),
		CertURLPrefix: getEnv("CERT_URL_PREFIX", "/certificates"),
		CertFont:      getEnv("CERT_FONT", ""),

		SMSApiKey: getEnv("SMS_API_KEY", ""),
		SMSApiUrl: getEnv("SMS_API_URL", "https://www.fast2sms.com/dev/bulkV2"),

		EmailSender: getEnv("EMAIL_SENDER", ""),
		Password:    getEnv("PASSWORD", ""),
		AdminEmail:  getEnv("ADMIN_EMAIL", ""),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.AdminUsername == "admin" {
		log.Println("Warning: Using default ADMIN_USERNAME. Update it in your environment.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
