package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allEnvVars = []string{
	"CONFIG_FILE",
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "ENVIRONMENT", "CORS_ALLOWED_ORIGINS",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"CACHE_ENABLED", "CACHE_TASK_TTL", "CACHE_PAGE_TTL", "CACHE_LOCAL_TTL",
	"JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL", "BCRYPT_COST",
	"ADMIN_EMAIL", "ADMIN_PASSWORD", "ADMIN_REGISTRATION_OPEN",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"LOG_LEVEL", "LOG_FORMAT",
}

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, k := range allEnvVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Database.Driver != "postgres" {
		t.Errorf("Expected default DB driver 'postgres', got %s", config.Database.Driver)
	}

	if config.Database.MaxOpenConns != 25 {
		t.Errorf("Expected default max open conns 25, got %d", config.Database.MaxOpenConns)
	}

	if config.Redis.Enabled {
		t.Error("Expected redis to be disabled by default")
	}

	if config.Auth.AccessTokenTTL != 10*time.Hour {
		t.Errorf("Expected default access token TTL 10h, got %v", config.Auth.AccessTokenTTL)
	}

	if !config.Auth.AdminRegistrationOpen {
		t.Error("Expected admin registration to be open by default")
	}

	if config.RateLimit.RequestsPerMin != 100 {
		t.Errorf("Expected default RPM 100, got %d", config.RateLimit.RequestsPerMin)
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	clearEnvVars(t)
	setEnvVars(t, map[string]string{
		"PORT":                 "9090",
		"DB_DRIVER":            "SQLite",
		"DB_NAME":              ":memory:",
		"REDIS_ENABLED":        "true",
		"REDIS_DB":             "2",
		"ACCESS_TOKEN_TTL":     "45m",
		"BCRYPT_COST":          "4",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"LOG_LEVEL":            "debug",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Server.Port != "9090" {
		t.Errorf("Expected port '9090', got %s", config.Server.Port)
	}
	if config.Database.Driver != "sqlite" {
		t.Errorf("Expected driver to be lower-cased to 'sqlite', got %s", config.Database.Driver)
	}
	if !config.Redis.Enabled || config.Redis.DB != 2 {
		t.Errorf("Expected redis enabled on DB 2, got enabled=%v db=%d", config.Redis.Enabled, config.Redis.DB)
	}
	if config.Auth.AccessTokenTTL != 45*time.Minute {
		t.Errorf("Expected token TTL 45m, got %v", config.Auth.AccessTokenTTL)
	}
	if config.Auth.BCryptCost != 4 {
		t.Errorf("Expected bcrypt cost 4, got %d", config.Auth.BCryptCost)
	}
	if len(config.Server.AllowedOrigins) != 2 || config.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected allowed origins: %v", config.Server.AllowedOrigins)
	}
	if config.Log.Level != "debug" {
		t.Errorf("Expected log level 'debug', got %s", config.Log.Level)
	}
}

func TestLoadConfig_FileThenEnvironment(t *testing.T) {
	clearEnvVars(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "7070"
  environment: staging
database:
  driver: mysql
  name: tracker
cache:
  task_ttl: 90s
auth:
  issuer: from-file
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	setEnvVars(t, map[string]string{
		"CONFIG_FILE": path,
		"PORT":        "7171",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Server.Port != "7171" {
		t.Errorf("Expected environment to override file port, got %s", config.Server.Port)
	}
	if config.Server.Environment != "staging" {
		t.Errorf("Expected environment 'staging' from file, got %s", config.Server.Environment)
	}
	if config.Database.Driver != "mysql" {
		t.Errorf("Expected driver 'mysql' from file, got %s", config.Database.Driver)
	}
	if config.Cache.TaskTTL != 90*time.Second {
		t.Errorf("Expected task TTL 90s from file, got %v", config.Cache.TaskTTL)
	}
	if config.Auth.Issuer != "from-file" {
		t.Errorf("Expected issuer from file, got %s", config.Auth.Issuer)
	}
	if config.Database.MaxOpenConns != 25 {
		t.Errorf("Expected defaults to survive file merge, got %d", config.Database.MaxOpenConns)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadConfig_ProductionValidation(t *testing.T) {
	clearEnvVars(t)
	setEnvVars(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "a-real-secret",
	})

	_, err := LoadConfig()
	if err == nil || !strings.Contains(err.Error(), "database password") {
		t.Errorf("Expected database password error in production, got %v", err)
	}
}

func TestLoadConfig_ProductionJWTValidation(t *testing.T) {
	clearEnvVars(t)
	setEnvVars(t, map[string]string{
		"ENVIRONMENT": "production",
		"DB_PASSWORD": "secret",
	})

	_, err := LoadConfig()
	if err == nil || !strings.Contains(err.Error(), "JWT secret") {
		t.Errorf("Expected JWT secret error in production, got %v", err)
	}
}

func TestLoadConfig_UnsupportedDriver(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DB_DRIVER", "oracle")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := Default()
	config.Database.Password = "pw"

	expected := "host=localhost port=5432 user=postgres password=pw dbname=task_tracker sslmode=disable"
	if dsn := config.GetDatabaseDSN(); dsn != expected {
		t.Errorf("Expected DSN %q, got %q", expected, dsn)
	}

	config.Database.Driver = "mysql"
	config.Database.Port = "3306"
	mysqlDSN := config.GetDatabaseDSN()
	if !strings.HasPrefix(mysqlDSN, "postgres:pw@tcp(localhost:3306)/task_tracker") {
		t.Errorf("Unexpected mysql DSN %q", mysqlDSN)
	}
	if !strings.Contains(mysqlDSN, "parseTime=true") {
		t.Errorf("Expected parseTime in mysql DSN, got %q", mysqlDSN)
	}

	config.Database.Driver = "sqlite"
	config.Database.Name = ":memory:"
	if dsn := config.GetDatabaseDSN(); dsn != ":memory:" {
		t.Errorf("Expected sqlite DSN ':memory:', got %q", dsn)
	}
}

func TestConfig_Addresses(t *testing.T) {
	config := Default()

	if addr := config.GetRedisAddr(); addr != "localhost:6379" {
		t.Errorf("Expected redis addr localhost:6379, got %s", addr)
	}
	if addr := config.GetServerAddr(); addr != "localhost:8080" {
		t.Errorf("Expected server addr localhost:8080, got %s", addr)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		expected    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			config := &Config{Server: ServerConfig{Environment: tt.environment}}
			if got := config.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_DURATION", "2m")
	t.Setenv("TEST_SLICE", " a, ,b ")

	if got := getEnvAsInt("TEST_INT", 1); got != 42 {
		t.Errorf("getEnvAsInt = %d, expected 42", got)
	}
	if got := getEnvAsInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt with invalid value = %d, expected default 7", got)
	}
	if got := getEnvAsBool("TEST_BOOL", false); !got {
		t.Error("getEnvAsBool = false, expected true")
	}
	if got := getEnvAsDuration("TEST_DURATION", time.Second); got != 2*time.Minute {
		t.Errorf("getEnvAsDuration = %v, expected 2m", got)
	}
	if got := getEnvAsSlice("TEST_SLICE", nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("getEnvAsSlice = %v, expected [a b]", got)
	}
	if got := getEnv("TEST_UNSET_VALUE", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %s, expected fallback", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	os.Unsetenv("DOTENV_ONLY_KEY")
	t.Cleanup(func() { os.Unsetenv("DOTENV_ONLY_KEY") })

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DOTENV_ONLY_KEY=loaded\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(filepath.Join(dir, "absent.env"), path); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}

	if got := os.Getenv("DOTENV_ONLY_KEY"); got != "loaded" {
		t.Errorf("Expected DOTENV_ONLY_KEY=loaded, got %q", got)
	}
}
