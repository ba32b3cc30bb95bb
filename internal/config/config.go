// Package config loads the tracker configuration from an env file and the
// process environment.
package config

import (
	"fmt"
	"log"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ConfigPath string
	Profile    string
	Verbose    bool
	ApiGinMode string

	Port            string
	ShutdownTimeout int // seconds

	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string

	// database
	DBDriver   string
	DBAddress  string
	DBUser     string
	DBPassword string `cfg:"secret"`
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// auth
	AuthMode     string
	AuthAddress  string
	Realm        string
	Audience     string
	ClientID     string
	ClientSecret string `cfg:"secret"`
	KCProvision  bool
	JWTSecret    string `cfg:"secret"`
	JWTIssuer    string

	// mail
	MailDriver     string
	MailFrom       string
	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPass       string `cfg:"secret"`
	ResendAPIKey   string `cfg:"secret"`
	ResendEndpoint string
	AppBaseURL     string

	EnforceUserTypes bool
}

// Load reads the env file at path (a missing file is not fatal) and resolves
// every key against the environment with its default.
func Load(path string) Config {
	if err := godotenv.Load(path); err != nil {
		log.Printf("Failed to load the config file at %s, using default ones...", path)
	}

	s := strings.Split(path, "/")
	config := Config{
		ConfigPath: s[len(s)-1],
		Profile:    getEnv("PROFILE", "baremetal"),
		Verbose:    getBoolEnv("VERBOSE", "true"),
		ApiGinMode: getEnv("GIN_MODE", "debug"),

		Port:            getEnv("PORT", "5050"),
		ShutdownTimeout: getIntEnv("SHUTDOWN_TIMEOUT", 5),
		AllowedOrigins:  getEnvFields("ALLOW_ORIGINS", []string{"*"}),
		AllowedMethods:  getEnvFields("ALLOW_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders:  getEnvFields("ALLOW_HEADERS", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBAddress:  getEnv("DB_ADDRESS", "localhost:5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "pms"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "tracker.db"),

		AuthMode:     getEnv("AUTH_MODE", "keycloak"),
		AuthAddress:  getEnv("AUTH_ADDRESS", "localhost:8080"),
		Realm:        getEnv("KC_REALM", "pms"),
		Audience:     getEnv("KC_AUDIENCE", ""),
		ClientID:     getEnv("KC_CLIENT", "pms-api"),
		ClientSecret: getEnv("KC_CLIENT_SECRET", ""),
		KCProvision:  getBoolEnv("KC_PROVISION", "false"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", ""),

		MailDriver:     getEnv("MAIL_DRIVER", "log"),
		MailFrom:       getEnv("MAIL_FROM", "pms@localhost"),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
		ResendEndpoint: getEnv("RESEND_ENDPOINT", ""),
		AppBaseURL:     getEnv("APP_BASE_URL", "http://localhost:3000"),

		EnforceUserTypes: getBoolEnv("ENFORCE_USER_TYPES", "true"),
	}

	if config.Verbose {
		log.Print(config.toString())
	}

	return config
}

// Issuer is the expected token issuer for the configured auth mode.
func (cfg *Config) Issuer() string {
	if strings.ToLower(cfg.AuthMode) == "hmac" {
		return cfg.JWTIssuer
	}
	addr := cfg.AuthAddress
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return fmt.Sprintf("%s/realms/%s", addr, cfg.Realm)
}

func getEnv(env, fallback string) string {
	if value, exists := os.LookupEnv(env); exists {
		return value
	}

	return fallback
}

func getEnvFields(env string, fallback []string) []string {
	if value, exists := os.LookupEnv(env); exists {
		fields := strings.Split(strings.TrimSpace(value), ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		return fields
	}

	return fallback
}

func getBoolEnv(env, fallback string) bool {
	if value, exists := os.LookupEnv(env); exists {
		return strings.ToLower(value) == "true"
	}

	return strings.ToLower(fallback) == "true"
}

func getIntEnv(env string, fallback int) int {
	if value, exists := os.LookupEnv(env); exists {
		int_value, err := strconv.Atoi(value)
		if err == nil {
			return int_value
		}
	}

	return fallback
}

func (cfg *Config) toString() string {
	var strBuilder strings.Builder

	reflectedValues := reflect.ValueOf(cfg).Elem()
	reflectedTypes := reflect.TypeOf(cfg).Elem()

	strBuilder.WriteString(fmt.Sprintf("[CFG]CONFIGURATION: %s\n", cfg.ConfigPath))

	for i := range reflectedValues.NumField() {
		field := reflectedTypes.Field(i)
		fieldName := field.Name
		fieldValue := reflectedValues.Field(i).Interface()

		if field.Tag.Get("cfg") == "secret" && fieldValue != "" {
			fieldValue = "******"
		}

		strBuilder.WriteString("[CFG]")
		if i < 9 {
			strBuilder.WriteString(fmt.Sprintf("%d.  ", i+1))
		} else {
			strBuilder.WriteString(fmt.Sprintf("%d. ", i+1))
		}
		if len(fieldName) <= 6 {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t\t\t\t-> %v\n", fieldName, fieldValue))
		} else if len(fieldName) <= 14 {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t\t\t-> %v\n", fieldName, fieldValue))
		} else if len(fieldName) <= 25 {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t\t-> %v\n", fieldName, fieldValue))
		} else {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t-> %v\n", fieldName, fieldValue))
		}
	}

	return strBuilder.String()
}
