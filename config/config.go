// Package config loads application configuration from environment
// variables. main loads a .env file first when one exists.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values
type Config struct {
	Env  string
	Port string

	// Storage: "firestore", "mongo" or "memory"
	StoreDriver              string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	MongoURI                 string
	MongoDatabase            string

	// Identity: "firebase" or "local"
	AuthMode          string
	FirebaseProjectID string
	JWTSecret         string
	TokenTTL          time.Duration
	BcryptCost        int
	AdminEmails       []string

	// Email: "sendgrid", "postmark" or "" (log only)
	EmailProvider  string
	SendGridAPIKey string
	PostmarkToken  string
	EmailSender    string
	PublicBaseURL  string

	RabbitMQURL string

	// Uploads go to GCS when UploadBucket is set, else under UploadDir
	UploadBucket string
	UploadDir    string

	SentryDSN   string
	CORSOrigins string

	ProductDefaultLimit int
	ProductMaxLimit     int
	PriceFloor          float64
	PriceCeiling        float64

	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// Load reads configuration values from environment variables
func Load() *Config {
	project := getenv("GCP_PROJECT_ID", "")
	return &Config{
		Env:  getenv("APP_ENV", "dev"),
		Port: getenv("PORT", "8000"),

		StoreDriver:              strings.ToLower(getenv("STORE_DRIVER", "firestore")),
		FirestoreProjectID:       getenv("FIRESTORE_PROJECT_ID", project),
		FirestoreCredentialsFile: getenv("FIRESTORE_CREDENTIALS_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		MongoURI:                 getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:            getenv("MONGODB_DATABASE", "phonestore"),

		AuthMode:          strings.ToLower(getenv("AUTH_MODE", "firebase")),
		FirebaseProjectID: getenv("FIREBASE_PROJECT_ID", project),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          envDur("TOKEN_TTL", 24*time.Hour),
		BcryptCost:        envInt("BCRYPT_COST", 10),
		AdminEmails:       splitList(os.Getenv("ADMIN_EMAILS")),

		EmailProvider:  strings.ToLower(os.Getenv("EMAIL_PROVIDER")),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		PostmarkToken:  os.Getenv("POSTMARK_API_TOKEN"),
		EmailSender:    getenv("EMAIL_SENDER", "no-reply@localhost"),
		PublicBaseURL:  getenv("PUBLIC_BASE_URL", "http://localhost:3000"),

		RabbitMQURL: firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),

		UploadBucket: os.Getenv("UPLOAD_BUCKET"),
		UploadDir:    getenv("UPLOAD_DIR", "uploads"),

		SentryDSN:   os.Getenv("SENTRY_DSN"),
		CORSOrigins: getenv("CORS_ORIGINS", "*"),

		ProductDefaultLimit: envInt("PRODUCT_DEFAULT_LIMIT", 100),
		ProductMaxLimit:     envInt("PRODUCT_MAX_LIMIT", 500),
		PriceFloor:          envFloat("PRICE_FLOOR", 0),
		PriceCeiling:        envFloat("PRICE_CEILING", 2000),

		Cache:     LoadCacheConfig(),
		RateLimit: LoadRateLimitConfig(),
	}
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
