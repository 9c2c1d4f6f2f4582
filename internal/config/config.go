package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	JWTSecret                 string
	JWTRefreshSecret          string
	Database                  DatabaseConfig
	Mailer                    MailerConfig
	Momo                      MomoConfig
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	AppURL                    string
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// MailerConfig holds SMTP settings for outgoing notification mail
type MailerConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	DefaultFrom string
}

// MomoConfig holds the MoMo payment gateway credentials
type MomoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IPNURL      string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "clinic"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	mailerConfig := MailerConfig{
		Host:        getEnv("SMTP_HOST", ""),
		Port:        smtpPort,
		Username:    getEnv("SMTP_USER", ""),
		Password:    getEnv("SMTP_PASS", ""),
		DefaultFrom: getEnv("MAILER_DEFAULT_FROM", "no-reply@clinic.local"),
	}

	momoConfig := MomoConfig{
		PartnerCode: getEnv("MOMO_PARTNER_CODE", ""),
		AccessKey:   getEnv("MOMO_ACCESS_KEY", ""),
		SecretKey:   getEnv("MOMO_SECRET_KEY", ""),
		Endpoint:    getEnv("MOMO_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/create"),
		RedirectURL: getEnv("MOMO_REDIRECT_URL", "http://localhost:4200/payment/result"),
		IPNURL:      getEnv("MOMO_IPN_URL", "http://localhost:3001/api/v1/payments/momo/ipn"),
	}

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	// Return complete configuration
	return &Config{
		Port:                      getEnv("PORT", "3001"),
		Origin:                    getEnv("ORIGIN", "http://localhost:4200"),
		Environment:               getEnv("APP_ENV", "development"),
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		Database:                  dbConfig,
		Mailer:                    mailerConfig,
		Momo:                      momoConfig,
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		AppURL:                    getEnv("APP_URL", "http://localhost:3001"),
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
