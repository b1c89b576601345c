package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Source identifiers accepted by ETL_SOURCE.
const (
	SourceSheets = "sheets"
	SourceCSV    = "csv"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	CORS         CORSConfig
	Log          LogConfig
	Sheets       SheetsConfig
	ETL          ETLConfig
	Registration RegistrationConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SheetsConfig locates the registration spreadsheet.
type SheetsConfig struct {
	SpreadsheetID   string
	Range           string
	CredentialsFile string
}

// ETLConfig tunes the batch pipeline.
type ETLConfig struct {
	Source          string
	CSVPath         string
	BatchSize       int
	MinAge          int
	PhonePolicy     string
	DepartmentsFile string
	ReportDir       string
	ReportFormats   []string
	// ReportRetention prunes report files older than this after each run. Zero keeps them.
	ReportRetention time.Duration
	QueueRetries    int
	// RunHistory caps the finished API-triggered runs kept for status lookups.
	RunHistory      int
}

// RegistrationConfig gates the lookup cache used by single-record registration.
type RegistrationConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sheets = SheetsConfig{
		SpreadsheetID:   v.GetString("SHEETS_SPREADSHEET_ID"),
		Range:           v.GetString("SHEETS_RANGE"),
		CredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
	}

	batchSize := v.GetInt("ETL_BATCH_SIZE")
	if batchSize <= 0 {
		batchSize = 500
	}
	retries := v.GetInt("ETL_QUEUE_RETRIES")
	if retries < 0 {
		retries = 0
	}
	runHistory := v.GetInt("ETL_RUN_HISTORY")
	if runHistory <= 0 {
		runHistory = 50
	}
	cfg.ETL = ETLConfig{
		Source:          strings.ToLower(v.GetString("ETL_SOURCE")),
		CSVPath:         v.GetString("ETL_CSV_PATH"),
		BatchSize:       batchSize,
		MinAge:          v.GetInt("ETL_MIN_AGE"),
		PhonePolicy:     strings.ToLower(v.GetString("ETL_PHONE_POLICY")),
		DepartmentsFile: v.GetString("ETL_DEPARTMENTS_FILE"),
		ReportDir:       v.GetString("ETL_REPORT_DIR"),
		ReportFormats:   splitAndTrim(strings.ToLower(v.GetString("ETL_REPORT_FORMATS"))),
		ReportRetention: parseDuration(v.GetString("ETL_REPORT_RETENTION"), 0),
		QueueRetries:    retries,
		RunHistory:      runHistory,
	}

	cfg.Registration = RegistrationConfig{
		CacheEnabled: v.GetBool("ENABLE_REGISTRATION_CACHE"),
		CacheTTL:     parseDuration(v.GetString("REGISTRATION_CACHE_TTL"), 15*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "registration")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SHEETS_SPREADSHEET_ID", "")
	v.SetDefault("SHEETS_RANGE", "Sheet1!A:L")
	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "./credentials/service-account.json")

	v.SetDefault("ETL_SOURCE", SourceSheets)
	v.SetDefault("ETL_CSV_PATH", "")
	v.SetDefault("ETL_BATCH_SIZE", 500)
	v.SetDefault("ETL_MIN_AGE", 16)
	v.SetDefault("ETL_PHONE_POLICY", "in")
	v.SetDefault("ETL_DEPARTMENTS_FILE", "")
	v.SetDefault("ETL_REPORT_DIR", "./logs")
	v.SetDefault("ETL_REPORT_FORMATS", "json,csv")
	v.SetDefault("ETL_REPORT_RETENTION", "")
	v.SetDefault("ETL_QUEUE_RETRIES", 0)
	v.SetDefault("ETL_RUN_HISTORY", 50)

	v.SetDefault("ENABLE_REGISTRATION_CACHE", false)
	v.SetDefault("REGISTRATION_CACHE_TTL", "15m")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
