package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap/zapcore"
)

// Storage drivers for the report log and the estimate.
const (
	StorageCSV    = "csv"
	StorageSQLite = "sqlite"
)

// Attachment backends.
const (
	AttachmentsLocal = "local"
	AttachmentsMinIO = "minio"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Attachments AttachmentConfig
	Auth        AuthConfig
	Reporting   ReportingConfig
	MongoDB     MongoDBConfig
	Sheets      SheetsConfig
	WhatsApp    WhatsAppConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port               string
	LogLevel           string
	CORSAllowedOrigins []string
}

// StorageConfig locates the report log and the estimate.
type StorageConfig struct {
	Driver        string
	DataDir       string
	ReportLogPath string
	EstimatePath  string
	SQLitePath    string
}

// AttachmentConfig selects where uploaded PDFs live.
type AttachmentConfig struct {
	Backend        string
	UploadDir      string
	MaxUploadMB    int64
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
}

// AuthConfig holds the shared input password. It only gates the input portal.
type AuthConfig struct {
	InputPassword string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// MongoDBConfig holds settings for the optional snapshot store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken     string
	PhoneNumberID   string
	ReportRecipient string
	BaseURL         string
	APIVersion      string
}

// Enabled reports whether a Google Sheet mirror is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// Enabled reports whether summary notifications are configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.ReportRecipient != ""
}

// Enabled reports whether snapshots are stored.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when the environment carries the configuration.
		_ = godotenv.Load()
	}

	dataDir := getenvWithDefault("DATA_DIR", "/mnt/data")

	maxUpload, err := getenvInt("MAX_UPLOAD_MB", 25)
	if err != nil {
		return nil, err
	}
	useSSL, err := getenvBool("MINIO_USE_SSL", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getenvWithDefault("APP_PORT", "8080"),
			LogLevel:           getenvWithDefault("LOG_LEVEL", "info"),
			CORSAllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getenvWithDefault("STORAGE_DRIVER", StorageCSV)),
			DataDir:       dataDir,
			ReportLogPath: getenvWithDefault("REPORT_LOG_PATH", filepath.Join(dataDir, "report_log.csv")),
			EstimatePath:  getenvWithDefault("ESTIMATE_FILE_PATH", filepath.Join(dataDir, "estimates.json")),
			SQLitePath:    getenvWithDefault("SQLITE_PATH", filepath.Join(dataDir, "rigcost.db")),
		},
		Attachments: AttachmentConfig{
			Backend:        strings.ToLower(getenvWithDefault("ATTACHMENT_BACKEND", AttachmentsLocal)),
			UploadDir:      getenvWithDefault("UPLOAD_DIR", filepath.Join(dataDir, "uploaded_reports")),
			MaxUploadMB:    int64(maxUpload),
			MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
			MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
			MinIOBucket:    getenvWithDefault("MINIO_BUCKET", "daily-reports"),
			MinIOUseSSL:    useSSL,
		},
		Auth: AuthConfig{
			InputPassword: os.Getenv("INPUT_PASSWORD"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "America/Chicago"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "rigcost"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:     os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:   os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			ReportRecipient: os.Getenv("WHATSAPP_REPORT_RECIPIENT"),
			BaseURL:         getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:      getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if _, err := zapcore.ParseLevel(c.Server.LogLevel); err != nil {
		return eris.Wrapf(err, "LOG_LEVEL %q is invalid", c.Server.LogLevel)
	}

	if c.Auth.InputPassword == "" {
		return errors.New("INPUT_PASSWORD must be provided")
	}

	switch c.Storage.Driver {
	case StorageCSV:
		if c.Storage.ReportLogPath == "" || c.Storage.EstimatePath == "" {
			return errors.New("REPORT_LOG_PATH and ESTIMATE_FILE_PATH must not be empty")
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageCSV, StorageSQLite, c.Storage.Driver)
	}

	switch c.Attachments.Backend {
	case AttachmentsLocal:
		if c.Attachments.UploadDir == "" {
			return errors.New("UPLOAD_DIR must not be empty")
		}
	case AttachmentsMinIO:
		switch {
		case c.Attachments.MinIOEndpoint == "":
			return errors.New("MINIO_ENDPOINT must be provided")
		case c.Attachments.MinIOAccessKey == "":
			return errors.New("MINIO_ACCESS_KEY must be provided")
		case c.Attachments.MinIOSecretKey == "":
			return errors.New("MINIO_SECRET_KEY must be provided")
		case c.Attachments.MinIOBucket == "":
			return errors.New("MINIO_BUCKET must be provided")
		}
	default:
		return fmt.Errorf("ATTACHMENT_BACKEND must be %q or %q, got %q", AttachmentsLocal, AttachmentsMinIO, c.Attachments.Backend)
	}
	if c.Attachments.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := cron.ParseStandard(c.Reporting.CronSchedule); err != nil {
		return eris.Wrapf(err, "REPORT_CRON_SCHEDULE %q is invalid", c.Reporting.CronSchedule)
	}
	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return eris.Wrapf(err, "TIMEZONE %q is invalid", c.Reporting.Timezone)
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	whatsappSet := 0
	for _, v := range []string{c.WhatsApp.AccessToken, c.WhatsApp.PhoneNumberID, c.WhatsApp.ReportRecipient} {
		if v != "" {
			whatsappSet++
		}
	}
	if whatsappSet != 0 && whatsappSet != 3 {
		return errors.New("WHATSAPP_TOKEN, WHATSAPP_PHONE_NUMBER_ID and WHATSAPP_REPORT_RECIPIENT must be provided together")
	}
	if c.WhatsApp.Enabled() {
		if c.WhatsApp.BaseURL == "" {
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		}
		if c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	return nil
}

// Location returns the scheduler time zone. Validate has already checked it.
func (c ReportingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MaxUploadBytes is the multipart memory limit.
func (c AttachmentConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, eris.Wrapf(err, "%s must be an integer", key)
	}
	return n, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, eris.Wrapf(err, "%s must be a boolean", key)
	}
	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
